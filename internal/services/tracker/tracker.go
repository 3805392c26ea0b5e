package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/pkg/utils"
	"go.uber.org/zap"
)

var ErrTrackerClosed = errors.New("batch is closed")

// PreviewFunc renders a preview for an admitted candidate. An empty string
// means no preview.
type PreviewFunc func(c Candidate) string

type Options struct {
	ID                string
	Policy            Policy
	NotificationLimit int
	Notifier          Notifier
	Preview           PreviewFunc
	Logger            *zap.Logger
}

// Tracker owns one batch for the lifetime of a session. Items are only ever
// appended; each per-item task mutates its own item through Apply.
type Tracker struct {
	id        string
	createdAt time.Time
	policy    Policy
	notifier  Notifier
	preview   PreviewFunc
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu                sync.RWMutex
	items             []models.BatchItem
	notifications     []models.Notification
	notificationLimit int
	notificationSeq   uint64
	version           uint64
	lastSeen          time.Time
	subscribers       map[int]chan struct{}
	nextSubscriber    int
}

func New(opts Options) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.NotificationLimit
	if limit <= 0 {
		limit = 20
	}

	now := time.Now()
	return &Tracker{
		id:                opts.ID,
		createdAt:         now,
		policy:            opts.Policy,
		notifier:          opts.Notifier,
		preview:           opts.Preview,
		logger:            logger.With(zap.String("batch_id", opts.ID)),
		ctx:               ctx,
		cancel:            cancel,
		items:             []models.BatchItem{},
		notificationLimit: limit,
		lastSeen:          now,
		subscribers:       make(map[int]chan struct{}),
	}
}

func (t *Tracker) ID() string {
	return t.id
}

func (t *Tracker) Policy() Policy {
	return t.policy
}

// Context is cancelled when the tracker is closed.
func (t *Tracker) Context() context.Context {
	return t.ctx
}

func (t *Tracker) Closed() bool {
	return t.ctx.Err() != nil
}

// Add runs intake over candidates and appends the admitted ones as pending
// items. It returns the admission decision and the batch indexes assigned to
// the accepted candidates, in order.
func (t *Tracker) Add(candidates []Candidate) (Admission, []int, error) {
	if t.Closed() {
		return Admission{}, nil, ErrTrackerClosed
	}

	previews := t.renderPreviews(candidates)

	t.mu.Lock()
	adm := Admit(len(t.items), candidates, t.policy)

	indexes := make([]int, 0, len(adm.Accepted))
	for i, c := range adm.Accepted {
		item := models.BatchItem{
			Index:  len(t.items),
			File:   c.Identity(),
			Status: models.StatusPending,
		}
		item.SizeKB = item.File.SizeKB()
		if i < len(previews) {
			item.Preview = previews[i]
		}
		indexes = append(indexes, item.Index)
		t.items = append(t.items, item)
	}

	for i := range adm.Notifications {
		adm.Notifications[i].BatchID = t.id
		t.recordLocked(&adm.Notifications[i])
	}
	if len(indexes) > 0 || len(adm.Notifications) > 0 {
		t.bumpLocked()
	}
	t.lastSeen = time.Now()
	t.mu.Unlock()

	for _, n := range adm.Notifications {
		t.deliver(n)
	}

	t.logger.Info("Files offered to batch",
		zap.Int("offered", len(candidates)),
		zap.Int("admitted", len(indexes)),
		zap.Int("rejected", len(adm.Rejected)),
		zap.Bool("batch_full", adm.BatchFull))

	return adm, indexes, nil
}

// Apply feeds ev to the item at index. Updates are dropped once the tracker
// is closed. It reports whether the item changed.
func (t *Tracker) Apply(index int, ev Event) bool {
	if t.Closed() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed() || index < 0 || index >= len(t.items) {
		return false
	}

	next, changed := Transition(t.items[index], ev)
	if !changed {
		return false
	}
	t.items[index] = next
	t.bumpLocked()
	return true
}

// Notify records n for the projection and forwards it to the notifier.
func (t *Tracker) Notify(n models.Notification) {
	if t.Closed() {
		return
	}
	n.BatchID = t.id

	t.mu.Lock()
	t.recordLocked(&n)
	t.bumpLocked()
	t.mu.Unlock()

	t.deliver(n)
}

func (t *Tracker) Item(index int) (models.BatchItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if index < 0 || index >= len(t.items) {
		return models.BatchItem{}, false
	}
	return t.items[index], true
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Snapshot returns a copy of the batch in insertion order.
func (t *Tracker) Snapshot() models.BatchView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	items := make([]models.BatchItem, len(t.items))
	copy(items, t.items)
	notifications := make([]models.Notification, len(t.notifications))
	copy(notifications, t.notifications)

	return models.BatchView{
		ID:            t.id,
		Version:       t.version,
		MaxSize:       t.policy.MaxBatchSize,
		Items:         items,
		Notifications: notifications,
		CreatedAt:     t.createdAt,
		Closed:        t.Closed(),
	}
}

// Subscribe returns a channel signalled after every change. Signals are
// coalesced; readers should take a fresh Snapshot on each receive.
func (t *Tracker) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	t.mu.Lock()
	id := t.nextSubscriber
	t.nextSubscriber++
	t.subscribers[id] = ch
	t.mu.Unlock()

	return ch, func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

// WaitForChange blocks until the batch version exceeds since, the tracker
// closes, or ctx is done. The boolean is false only when ctx ended first.
func (t *Tracker) WaitForChange(ctx context.Context, since uint64) (models.BatchView, bool) {
	ch, unsubscribe := t.Subscribe()
	defer unsubscribe()

	for {
		view := t.Snapshot()
		if view.Version > since || view.Closed {
			return view, true
		}

		select {
		case <-ch:
		case <-t.ctx.Done():
			return t.Snapshot(), true
		case <-ctx.Done():
			return view, false
		}
	}
}

// Go runs fn as a task owned by the tracker.
func (t *Tracker) Go(fn func(ctx context.Context)) {
	t.tasks.Add(1)
	go func() {
		defer t.tasks.Done()
		fn(t.ctx)
	}()
}

// WaitTasks blocks until every task started with Go has returned.
func (t *Tracker) WaitTasks() {
	t.tasks.Wait()
}

// Touch marks the session as recently used.
func (t *Tracker) Touch() {
	t.mu.Lock()
	t.lastSeen = time.Now()
	t.mu.Unlock()
}

func (t *Tracker) LastSeen() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSeen
}

// Close tears the batch down. In-flight tasks stop applying updates and
// their requests are cancelled.
func (t *Tracker) Close() {
	t.cancel()

	t.mu.Lock()
	t.bumpLocked()
	t.mu.Unlock()
}

// renderPreviews returns previews for the candidates that pass the type
// filter, in order, so they line up with Admission.Accepted.
func (t *Tracker) renderPreviews(candidates []Candidate) []string {
	if t.preview == nil || t.Len()+len(candidates) > t.policy.MaxBatchSize {
		return nil
	}
	var previews []string
	for _, c := range candidates {
		if utils.IsAllowedType(c.ContentType, t.policy.AllowedTypes) {
			previews = append(previews, t.preview(c))
		}
	}
	return previews
}

// recordLocked numbers n and keeps it, dropping the oldest beyond the limit.
func (t *Tracker) recordLocked(n *models.Notification) {
	t.notificationSeq++
	n.Seq = t.notificationSeq
	t.notifications = append(t.notifications, *n)
	if over := len(t.notifications) - t.notificationLimit; over > 0 {
		t.notifications = append([]models.Notification(nil), t.notifications[over:]...)
	}
}

func (t *Tracker) bumpLocked() {
	t.version++
	for _, ch := range t.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (t *Tracker) deliver(n models.Notification) {
	if t.notifier == nil {
		return
	}
	t.notifier.Notify(t.ctx, n)
}
