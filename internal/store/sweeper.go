package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically demotes expired notice pins for one session store.
// It is owned by the store's lifecycle: started when the session opens and
// stopped when the session closes, never left running unattended.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger
	observer Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSweeper builds a sweeper. The reference period is one minute.
func NewSweeper(store *Store, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Start launches the sweep loop. Safe to call once.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if demoted := s.store.Sweep(ctx); demoted > 0 && s.observer != nil {
					s.observer.PinsSwept(demoted)
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.mu.Unlock()
	<-done
}
