package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("batch session not found")

type ManagerConfig struct {
	Policy            Policy
	NotificationLimit int
	SessionTTL        time.Duration
	Notifier          Notifier
	Preview           PreviewFunc
	Logger            *zap.Logger
}

// Manager holds one tracker per session.
type Manager struct {
	cfg      ManagerConfig
	runner   *Runner
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[string]*Tracker
}

func NewManager(cfg ManagerConfig, runner *Runner) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		runner:   runner,
		logger:   logger,
		sessions: make(map[string]*Tracker),
	}
}

func (m *Manager) Create() *Tracker {
	t := New(Options{
		ID:                uuid.New().String(),
		Policy:            m.cfg.Policy,
		NotificationLimit: m.cfg.NotificationLimit,
		Notifier:          m.cfg.Notifier,
		Preview:           m.cfg.Preview,
		Logger:            m.logger,
	})

	m.mu.Lock()
	m.sessions[t.ID()] = t
	m.mu.Unlock()

	m.logger.Info("Batch session created", zap.String("batch_id", t.ID()))
	return t
}

func (m *Manager) Get(id string) (*Tracker, error) {
	m.mu.RLock()
	t, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	t.Touch()
	return t, nil
}

// Submit offers candidates to the session's batch and starts the admitted
// items.
func (m *Manager) Submit(id string, candidates []Candidate) (*Tracker, Admission, []int, error) {
	t, err := m.Get(id)
	if err != nil {
		return nil, Admission{}, nil, err
	}
	adm, indexes, err := m.runner.Submit(t, candidates)
	return t, adm, indexes, err
}

// Close removes the session and cancels its in-flight tasks.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	t, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	t.Close()
	m.logger.Info("Batch session closed", zap.String("batch_id", id))
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle closes sessions not used since now-SessionTTL and returns how
// many were removed.
func (m *Manager) CleanupIdle(now time.Time) int {
	if m.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.SessionTTL)

	m.mu.Lock()
	var expired []*Tracker
	for id, t := range m.sessions {
		if t.LastSeen().Before(cutoff) {
			expired = append(expired, t)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, t := range expired {
		t.Close()
		m.logger.Info("Batch session expired", zap.String("batch_id", t.ID()))
	}
	return len(expired)
}

// StartJanitor runs CleanupIdle every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.CleanupIdle(now)
			}
		}
	}()
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Tracker)
	m.mu.Unlock()

	for _, t := range sessions {
		t.Close()
	}
}
