package tracker

import (
	"fmt"
	"testing"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/captioner"
	"github.com/phambaophuc/image-alt/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFixture struct {
	presigner *fakePresigner
	uploader  *fakeUploader
	captioner *fakeCaptioner
	cache     *fakeCache
	notifier  *recordingNotifier
	runner    *Runner
	tracker   *Tracker
}

func newRunnerFixture(maxFileSize int64) *runnerFixture {
	f := &runnerFixture{
		presigner: &fakePresigner{},
		uploader:  &fakeUploader{},
		captioner: &fakeCaptioner{caption: "a dog on a beach"},
		cache:     newFakeCache(),
		notifier:  &recordingNotifier{},
	}
	f.runner = NewRunner(RunnerConfig{
		Presigner:   f.presigner,
		Uploader:    f.uploader,
		Captioner:   f.captioner,
		Cache:       f.cache,
		MaxFileSize: maxFileSize,
	})
	policy := testPolicy
	policy.MaxFileSize = maxFileSize
	f.tracker = New(Options{ID: "b1", Policy: policy, Notifier: f.notifier})
	return f
}

func TestRunnerCaptionsItem(t *testing.T) {
	f := newRunnerFixture(1024)
	f.uploader.gate = make(chan struct{})
	f.captioner.gate = make(chan struct{})

	_, indexes, err := f.runner.Submit(f.tracker, []Candidate{png("dog.png")})
	require.NoError(t, err)
	require.Equal(t, []int{0}, indexes)

	uploading := waitForStatus(t, f.tracker, 0, models.StatusUploading)
	assert.Empty(t, uploading.RemoteLocation)
	close(f.uploader.gate)

	processing := waitForStatus(t, f.tracker, 0, models.StatusProcessing)
	assert.Equal(t, 100, processing.Progress)
	assert.Equal(t, "https://bucket.example/1.png", processing.RemoteLocation)
	close(f.captioner.gate)

	f.tracker.WaitTasks()
	done, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusSucceeded, done.Status)
	assert.Equal(t, "a dog on a beach", done.Result)
	assert.Equal(t, []string{"https://bucket.example/1.png"}, f.captioner.calls())
	assert.Empty(t, f.notifier.kinds())

	cached, err := f.cache.LookupCaption(f.tracker.Context(), utils.ContentKey([]byte("png-dog.png")))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "a dog on a beach", cached.Caption)
}

func TestRunnerUploadFailureSkipsCaptioning(t *testing.T) {
	f := newRunnerFixture(1024)
	f.uploader.err = errBoom

	_, _, err := f.runner.Submit(f.tracker, []Candidate{png("a.png")})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusFailed, it.Status)
	assert.Equal(t, models.FailureUploadError, it.FailureReason)
	assert.Empty(t, it.RemoteLocation)
	assert.Empty(t, f.captioner.calls())
	assert.Equal(t, []models.NotificationKind{models.NotificationUploadError}, f.notifier.kinds())
}

func TestRunnerPresignFailureIsUploadError(t *testing.T) {
	f := newRunnerFixture(1024)
	f.presigner.err = errBoom

	_, _, err := f.runner.Submit(f.tracker, []Candidate{png("a.png")})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.FailureUploadError, it.FailureReason)
	assert.Zero(t, f.uploader.calls.Load())
}

func TestRunnerCaptionFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason models.FailureReason
		kind   models.NotificationKind
	}{
		{name: "provider error", err: fmt.Errorf("%w: model crashed", captioner.ErrPredictionFailed), reason: models.FailureProcessingError, kind: models.NotificationProcessingError},
		{name: "transport error", err: errBoom, reason: models.FailureProcessingError, kind: models.NotificationProcessingError},
		{name: "timeout", err: fmt.Errorf("prediction p1: %w", captioner.ErrTimeout), reason: models.FailureTimeout, kind: models.NotificationTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(1024)
			f.captioner.err = tt.err

			_, _, err := f.runner.Submit(f.tracker, []Candidate{png("a.png")})
			require.NoError(t, err)
			f.tracker.WaitTasks()

			it, _ := f.tracker.Item(0)
			assert.Equal(t, models.StatusFailed, it.Status)
			assert.Equal(t, tt.reason, it.FailureReason)
			assert.NotEmpty(t, it.RemoteLocation)
			assert.Equal(t, []models.NotificationKind{tt.kind}, f.notifier.kinds())
		})
	}
}

func TestRunnerTooLargeMakesNoRequests(t *testing.T) {
	f := newRunnerFixture(8)

	_, _, err := f.runner.Submit(f.tracker, []Candidate{{Name: "big.png", ContentType: "image/png", Data: make([]byte, 64)}})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusFailed, it.Status)
	assert.Equal(t, models.FailureTooLarge, it.FailureReason)
	assert.Zero(t, f.presigner.calls.Load())
	assert.Zero(t, f.uploader.calls.Load())
	assert.Equal(t, []models.NotificationKind{models.NotificationTooLarge}, f.notifier.kinds())
}

func TestRunnerItemsAreIndependent(t *testing.T) {
	f := newRunnerFixture(16)

	_, _, err := f.runner.Submit(f.tracker, []Candidate{
		png("a.png"),
		{Name: "big.png", ContentType: "image/png", Data: make([]byte, 64)},
		png("c.png"),
	})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	view := f.tracker.Snapshot()
	require.Len(t, view.Items, 3)
	assert.Equal(t, models.StatusSucceeded, view.Items[0].Status)
	assert.Equal(t, models.StatusFailed, view.Items[1].Status)
	assert.Equal(t, models.StatusSucceeded, view.Items[2].Status)
}

func TestRunnerCacheHitSkipsNetwork(t *testing.T) {
	f := newRunnerFixture(1024)
	c := png("a.png")
	require.NoError(t, f.cache.StoreCaption(f.tracker.Context(), utils.ContentKey(c.Data),
		models.CachedCaption{Key: "old.png", Caption: "a cached cat"}))

	_, _, err := f.runner.Submit(f.tracker, []Candidate{c})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusSucceeded, it.Status)
	assert.Equal(t, "a cached cat", it.Result)
	assert.Equal(t, "https://bucket.example/old.png?signed=1", it.RemoteLocation)
	assert.Zero(t, f.presigner.calls.Load())
	assert.Empty(t, f.captioner.calls())
}

func TestRunnerCacheHitSignsFreshURLEachTime(t *testing.T) {
	f := newRunnerFixture(1024)
	c := png("a.png")
	require.NoError(t, f.cache.StoreCaption(f.tracker.Context(), utils.ContentKey(c.Data),
		models.CachedCaption{Key: "old.png", Caption: "a cached cat"}))

	_, _, err := f.runner.Submit(f.tracker, []Candidate{c})
	require.NoError(t, err)
	_, _, err = f.runner.Submit(f.tracker, []Candidate{c})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	first, _ := f.tracker.Item(0)
	second, _ := f.tracker.Item(1)
	assert.NotEqual(t, first.RemoteLocation, second.RemoteLocation)
	assert.EqualValues(t, 2, f.presigner.signs.Load())
}

func TestRunnerCacheStoresObjectKey(t *testing.T) {
	f := newRunnerFixture(1024)
	c := png("a.png")

	_, _, err := f.runner.Submit(f.tracker, []Candidate{c})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	entry, err := f.cache.LookupCaption(f.tracker.Context(), utils.ContentKey(c.Data))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "1.png", entry.Key)
	assert.Equal(t, f.captioner.caption, entry.Caption)
}

func TestRunnerCacheHitUploadsWhenSigningFails(t *testing.T) {
	f := newRunnerFixture(1024)
	f.presigner.signErr = errBoom
	c := png("a.png")
	require.NoError(t, f.cache.StoreCaption(f.tracker.Context(), utils.ContentKey(c.Data),
		models.CachedCaption{Key: "old.png", Caption: "a cached cat"}))

	_, _, err := f.runner.Submit(f.tracker, []Candidate{c})
	require.NoError(t, err)
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusSucceeded, it.Status)
	assert.Equal(t, "https://bucket.example/1.png", it.RemoteLocation)
	assert.EqualValues(t, 1, f.presigner.calls.Load())
	assert.Len(t, f.captioner.calls(), 1)
}

func TestRunnerCloseCancelsInFlightWork(t *testing.T) {
	f := newRunnerFixture(1024)
	f.captioner.gate = make(chan struct{})

	_, _, err := f.runner.Submit(f.tracker, []Candidate{png("a.png")})
	require.NoError(t, err)
	waitForStatus(t, f.tracker, 0, models.StatusProcessing)

	f.tracker.Close()
	f.tracker.WaitTasks()

	it, _ := f.tracker.Item(0)
	assert.Equal(t, models.StatusProcessing, it.Status)
	assert.Empty(t, f.notifier.kinds())
}
