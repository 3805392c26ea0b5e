package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/storage"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
	"github.com/phambaophuc/image-alt/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var allowedTypes = []string{"image/jpeg", "image/jpg", "image/png"}

type fakeStorage struct {
	mu   sync.Mutex
	jobs map[string]models.CaptionJob
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{jobs: make(map[string]models.CaptionJob)}
}

func (f *fakeStorage) Presign(_ context.Context, contentType string) (*models.UploadTarget, error) {
	if !utils.IsAllowedType(contentType, allowedTypes) {
		return nil, storage.ErrInvalidFileType
	}
	key := utils.GenerateStorageKey(contentType)
	return &models.UploadTarget{
		PostURL: "https://bucket.example/",
		GetURL:  "https://bucket.example/" + key,
		Fields:  map[string]string{"key": key},
		Key:     key,
	}, nil
}

func (f *fakeStorage) FileURL(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?sig=1", nil
}

func (f *fakeStorage) GetJob(_ context.Context, id string) (*models.CaptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, storage.ErrJobNotFound
	}
	return &job, nil
}

func (f *fakeStorage) SaveJob(_ context.Context, job *models.CaptionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeStorage) HealthCheck(context.Context) map[string]string {
	return map[string]string{"redis": "not configured", "s3": "healthy"}
}

type fakeCaptioner struct {
	caption string
	err     error
}

func (f fakeCaptioner) Caption(context.Context, string) (string, error) {
	return f.caption, f.err
}

type fakeQueue struct {
	store     *fakeStorage
	published []string
}

func (f *fakeQueue) PublishJob(ctx context.Context, job *models.CaptionJob) error {
	f.published = append(f.published, job.ID)
	return f.store.SaveJob(ctx, job)
}

func (f *fakeQueue) HealthCheck() string {
	return "healthy"
}

type okUploader struct{}

func (okUploader) Upload(_ context.Context, _ *models.UploadTarget, _, _ string, data []byte, progress func(loaded, total int64)) error {
	progress(int64(len(data)), int64(len(data)))
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LongPollWait: time.Second},
		Batch: config.BatchConfig{
			MaxBatchSize: 5,
			MaxFileSize:  1024,
			AllowedTypes: allowedTypes,
		},
	}
}

type testServer struct {
	router  *gin.Engine
	storage *fakeStorage
	queue   *fakeQueue
	manager *tracker.Manager
}

func newTestServer(t *testing.T, c Captioner, withQueue bool) *testServer {
	t.Helper()
	cfg := testConfig()
	store := newFakeStorage()

	var jobs JobQueue
	var q *fakeQueue
	if withQueue {
		q = &fakeQueue{store: store}
		jobs = q
	}

	runner := tracker.NewRunner(tracker.RunnerConfig{
		Presigner:   store,
		Uploader:    okUploader{},
		Captioner:   c,
		MaxFileSize: cfg.Batch.MaxFileSize,
	})
	manager := tracker.NewManager(tracker.ManagerConfig{
		Policy: tracker.Policy{
			MaxBatchSize: cfg.Batch.MaxBatchSize,
			MaxFileSize:  cfg.Batch.MaxFileSize,
			AllowedTypes: cfg.Batch.AllowedTypes,
		},
	}, runner)
	t.Cleanup(manager.CloseAll)

	images := NewImageHandler(store, c, jobs, zap.NewNop(), cfg)
	batches := NewBatchHandler(manager, zap.NewNop(), cfg)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/health", images.HealthCheck)
	v1.POST("/images/presign", images.Presign)
	v1.GET("/images/url", images.FileURL)
	v1.POST("/images/process", images.Process)
	v1.POST("/images/process/async", images.ProcessAsync)
	v1.GET("/jobs/:id", images.GetJob)
	v1.POST("/batches", batches.Create)
	v1.POST("/batches/:id/files", batches.AddFiles)
	v1.GET("/batches/:id", batches.Get)
	v1.DELETE("/batches/:id", batches.Delete)

	return &testServer{router: router, storage: store, queue: q, manager: manager}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func filesRequest(t *testing.T, path string, uploads ...upload) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, u := range uploads {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, u.name))
		header.Set("Content-Type", u.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (models.APIResponse, T) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	var data T
	if len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
	}
	return models.APIResponse{Success: envelope.Success, Error: envelope.Error}, data
}
