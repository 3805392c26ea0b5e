package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPresigner struct{}

func (stubPresigner) Presign(_ context.Context, contentType string) (*models.UploadTarget, error) {
	return &models.UploadTarget{PostURL: "https://bucket.example/", GetURL: "https://bucket.example/k", Key: "k"}, nil
}

func (stubPresigner) FileURL(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key, nil
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, _ *models.UploadTarget, _, _ string, data []byte, progress func(loaded, total int64)) error {
	progress(int64(len(data)), int64(len(data)))
	return nil
}

type stubCaptioner struct {
	failFor string
}

func (s stubCaptioner) Caption(_ context.Context, _ string) (string, error) {
	if s.failFor != "" {
		return "", errors.New("model crashed")
	}
	return "a red bicycle", nil
}

func newTestManager(c stubCaptioner) *tracker.Manager {
	runner := tracker.NewRunner(tracker.RunnerConfig{
		Presigner:   stubPresigner{},
		Uploader:    stubUploader{},
		Captioner:   c,
		MaxFileSize: 1024,
	})
	return tracker.NewManager(tracker.ManagerConfig{
		Policy: tracker.Policy{
			MaxBatchSize: 5,
			MaxFileSize:  1024,
			AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png"},
		},
	}, runner)
}

func newTestContext() (*AppContext, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &AppContext{IO: IOStreams{Out: out, ErrOut: errOut}}, out, errOut
}

func TestRunCaptionRendersTable(t *testing.T) {
	app, out, errOut := newTestContext()
	candidates := []tracker.Candidate{
		{Name: "bike.png", ContentType: "image/png", Data: []byte("png")},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hi")},
	}

	err := runCaption(context.Background(), app, newTestManager(stubCaptioner{}), candidates)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "bike.png")
	assert.Contains(t, out.String(), "a red bicycle")
	assert.NotContains(t, out.String(), "notes.txt")
	assert.Contains(t, errOut.String(), "Invalid file type")
	assert.Contains(t, errOut.String(), "[1] bike.png: succeeded")
}

func TestRunCaptionReportsFailures(t *testing.T) {
	app, out, _ := newTestContext()

	err := runCaption(context.Background(), app, newTestManager(stubCaptioner{failFor: "all"}),
		[]tracker.Candidate{{Name: "a.png", ContentType: "image/png", Data: []byte("a")}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, out.String(), "failed: processing-error")
}

func TestRunCaptionBatchFull(t *testing.T) {
	app, _, errOut := newTestContext()

	var candidates []tracker.Candidate
	for i := 0; i < 6; i++ {
		candidates = append(candidates, tracker.Candidate{Name: "a.png", ContentType: "image/png", Data: []byte{byte(i)}})
	}

	err := runCaption(context.Background(), app, newTestManager(stubCaptioner{}), candidates)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch rejected")
	assert.Contains(t, errOut.String(), "Too many files")
}

func TestRunCaptionJSON(t *testing.T) {
	app, out, _ := newTestContext()
	app.Opts.JSON = true

	err := runCaption(context.Background(), app, newTestManager(stubCaptioner{}),
		[]tracker.Candidate{{Name: "a.png", ContentType: "image/png", Data: []byte("a")}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"status": "succeeded"`)
}

func TestReadFilesDetectsContentType(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(pngPath, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	noExt := filepath.Join(dir, "photo")
	require.NoError(t, os.WriteFile(noExt, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	candidates, err := readFiles([]string{pngPath, noExt})
	require.NoError(t, err)

	assert.Equal(t, "photo.png", candidates[0].Name)
	assert.Equal(t, "image/png", candidates[0].ContentType)
	assert.Equal(t, "image/png", candidates[1].ContentType)

	_, err = readFiles([]string{filepath.Join(dir, "missing.png")})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	app, out, _ := newTestContext()
	app.Build = BuildInfo{Version: "1.2.3"}

	root := newRootCommand(app)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "altgen 1.2.3 (commit unknown, built unknown)\n", out.String())
}

func TestProgressPrinterFollowsCappedNotifications(t *testing.T) {
	out := &bytes.Buffer{}
	printer := newProgressPrinter(out)

	note := func(seq uint64, title string) models.Notification {
		return models.Notification{Seq: seq, Title: title, Description: "d"}
	}

	printer.update(models.BatchView{Notifications: []models.Notification{note(1, "one"), note(2, "two")}})
	printer.update(models.BatchView{Notifications: []models.Notification{note(2, "two"), note(3, "three")}})
	printer.update(models.BatchView{Notifications: []models.Notification{note(4, "four")}})
	printer.update(models.BatchView{Notifications: []models.Notification{note(4, "four")}})

	assert.Equal(t, "! one: d\n! two: d\n! three: d\n! four: d\n", out.String())
}
