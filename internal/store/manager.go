package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
)

// Observer receives session lifecycle and sweep notifications. All methods
// must be safe for concurrent use.
type Observer interface {
	SessionOpened()
	SessionClosed()
	PinsSwept(count int)
}

// Manager owns one session store per authenticated viewer. Stores are
// created lazily on first touch after login, loaded from the persistence
// collaborators, and torn down (sweeper included) on logout or shutdown.
type Manager struct {
	repos         Repos
	sweepInterval time.Duration
	logger        *zap.Logger
	clock         func() time.Time
	observer      Observer

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	store   *Store
	sweeper *Sweeper
}

// NewManager builds a session store manager.
func NewManager(repos Repos, sweepInterval time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		repos:         repos,
		sweepInterval: sweepInterval,
		logger:        logger,
		clock:         time.Now,
		sessions:      make(map[string]*session),
	}
}

// SetObserver installs a lifecycle observer. Call before the first Acquire.
func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

// Acquire returns the viewer's session store, creating and loading it on
// first touch. The pin sweeper starts with the store.
func (m *Manager) Acquire(ctx context.Context, viewer *models.Viewer) *Store {
	m.mu.Lock()
	if existing, ok := m.sessions[viewer.ID]; ok {
		m.mu.Unlock()
		return existing.store
	}

	st := New(viewer, m.repos, m.logger.With(zap.String("viewer_id", viewer.ID)), WithClock(m.clock))
	sw := NewSweeper(st, m.sweepInterval, m.logger)
	sw.observer = m.observer
	m.sessions[viewer.ID] = &session{store: st, sweeper: sw}
	m.mu.Unlock()

	st.Load(ctx)
	sw.Start(context.Background())
	if m.observer != nil {
		m.observer.SessionOpened()
	}
	return st
}

// Release tears down a viewer's session store and stops its sweeper.
// Releasing an unknown viewer is a no-op.
func (m *Manager) Release(viewerID string) {
	m.mu.Lock()
	sess, ok := m.sessions[viewerID]
	if ok {
		delete(m.sessions, viewerID)
	}
	m.mu.Unlock()
	if ok {
		sess.sweeper.Stop()
		if m.observer != nil {
			m.observer.SessionClosed()
		}
	}
}

// Shutdown releases every session. Called when the server stops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.sweeper.Stop()
		if m.observer != nil {
			m.observer.SessionClosed()
		}
	}
}
