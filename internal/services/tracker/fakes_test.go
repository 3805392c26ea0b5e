package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	calls   atomic.Int32
	signs   atomic.Int32
	err     error
	signErr error
}

func (f *fakePresigner) Presign(_ context.Context, contentType string) (*models.UploadTarget, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	key := fmt.Sprintf("%d.png", n)
	return &models.UploadTarget{
		PostURL: "https://bucket.example/",
		GetURL:  "https://bucket.example/" + key,
		Fields:  map[string]string{"key": key},
		Key:     key,
	}, nil
}

func (f *fakePresigner) FileURL(_ context.Context, key string) (string, error) {
	n := f.signs.Add(1)
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://bucket.example/%s?signed=%d", key, n), nil
}

type fakeUploader struct {
	calls atomic.Int32
	err   error
	gate  chan struct{}
}

func (f *fakeUploader) Upload(ctx context.Context, _ *models.UploadTarget, _, _ string, data []byte, progress func(loaded, total int64)) error {
	f.calls.Add(1)
	total := int64(len(data))
	progress(total/2, total)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	progress(total, total)
	return nil
}

type fakeCaptioner struct {
	mu      sync.Mutex
	urls    []string
	caption string
	err     error
	gate    chan struct{}
}

func (f *fakeCaptioner) Caption(ctx context.Context, imageURL string) (string, error) {
	f.mu.Lock()
	f.urls = append(f.urls, imageURL)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.caption, nil
}

func (f *fakeCaptioner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.CachedCaption
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.CachedCaption)}
}

func (f *fakeCache) LookupCaption(_ context.Context, key string) (*models.CachedCaption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeCache) StoreCaption(_ context.Context, key string, entry models.CachedCaption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = entry
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func (r *recordingNotifier) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []models.NotificationKind
	for _, n := range r.seen {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

var errBoom = errors.New("boom")

func waitForStatus(t *testing.T, tr *Tracker, index int, status models.ItemStatus) models.BatchItem {
	t.Helper()
	var last models.BatchItem
	require.Eventually(t, func() bool {
		last, _ = tr.Item(index)
		return last.Status == status
	}, time.Second, time.Millisecond, "item %d never reached %s", index, status)
	return last
}
