package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

// Pin transitions a notice to pinned with an optional expiry. A past expiry
// is accepted verbatim; the notice pins now and the next sweep demotes it.
// Role checks belong to the caller, not the store.
func (s *Store) Pin(ctx context.Context, noticeID string, until *time.Time) error {
	state := models.PinnedForever()
	if until != nil {
		state = models.PinnedUntil(*until)
	}
	if err := s.repos.Notices.UpdatePinState(ctx, noticeID, state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyPinLocked(noticeID, state)
	return nil
}

// Unpin transitions a notice to unpinned and clears any expiry. Idempotent:
// unpinning an unpinned notice is a no-op that still succeeds.
func (s *Store) Unpin(ctx context.Context, noticeID string) error {
	if err := s.repos.Notices.UpdatePinState(ctx, noticeID, models.Unpinned()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyPinLocked(noticeID, models.Unpinned())
	return nil
}

// Sweep demotes every pinned notice whose expiry is at or before now. It
// only moves notices pinned→unpinned; pins without an expiry are never
// touched. Running it twice without intervening pin calls is a no-op the
// second time. It returns the number of pins demoted.
func (s *Store) Sweep(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	var expired []string
	for i := range s.notices {
		if s.notices[i].Pin().ExpiredAt(now) {
			expired = append(expired, s.notices[i].ID)
		}
	}
	s.mu.Unlock()

	demoted := 0
	for _, id := range expired {
		if err := s.repos.Notices.UpdatePinState(ctx, id, models.Unpinned()); err != nil {
			s.logger.Warn("pin sweep: unpin failed", zap.String("notice_id", id), zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.applyPinLocked(id, models.Unpinned())
		s.mu.Unlock()
		s.logger.Info("pin expired", zap.String("notice_id", id))
		demoted++
	}
	return demoted
}

func (s *Store) applyPinLocked(noticeID string, state models.PinState) {
	for i := range s.notices {
		if s.notices[i].ID == noticeID {
			s.notices[i].ApplyPin(state)
			return
		}
	}
}

func errQueryNotFound(id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "query "+id+" not found")
}
