// Package status keeps the current Merapi activity level, persists it and
// notifies subscribers when it changes.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/observability"
)

var (
	ErrInvalidLevel = errors.New("invalid status level")
	ErrUnchanged    = errors.New("status already at this level")
)

// Persistence stores the status between restarts. Load returns nil when
// nothing was saved.
type Persistence interface {
	LoadStatus(ctx context.Context) (*models.VolcanoStatus, error)
	SaveStatus(ctx context.Context, st models.VolcanoStatus) error
}

type Store struct {
	persist     Persistence
	broadcaster *Broadcaster
	now         func() time.Time

	mu      sync.RWMutex
	current models.VolcanoStatus
}

// NewStore loads the persisted status. A missing or unreadable level starts
// the store at normal and writes that back.
func NewStore(ctx context.Context, persist Persistence) (*Store, error) {
	s := &Store{
		persist:     persist,
		broadcaster: NewBroadcaster(),
		now:         time.Now,
	}

	st, err := persist.LoadStatus(ctx)
	if err != nil {
		slog.Warn("could not load persisted status, resetting to normal", "error", err)
		st = nil
	}

	if st == nil || !st.Level.Valid() {
		if st != nil {
			slog.Warn("persisted status is corrupt, resetting to normal", "level", st.Level)
		}
		reset := models.VolcanoStatus{Level: models.StatusNormal, UpdatedAt: s.now().UTC()}
		if err := persist.SaveStatus(ctx, reset); err != nil {
			return nil, fmt.Errorf("error saving initial status: %w", err)
		}
		st = &reset
	}

	s.current = *st
	slog.Info("status loaded", "status", s.current.Level)
	return s, nil
}

func (s *Store) Get() models.VolcanoStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set moves the status to level, persists it and notifies subscribers.
func (s *Store) Set(ctx context.Context, level models.StatusLevel) (models.VolcanoStatus, error) {
	if !level.Valid() {
		return models.VolcanoStatus{}, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	s.mu.Lock()
	if s.current.Level == level {
		cur := s.current
		s.mu.Unlock()
		return cur, ErrUnchanged
	}

	next := models.VolcanoStatus{Level: level, UpdatedAt: s.now().UTC()}
	if err := s.persist.SaveStatus(ctx, next); err != nil {
		s.mu.Unlock()
		return models.VolcanoStatus{}, fmt.Errorf("error persisting status: %w", err)
	}
	prev := s.current.Level
	s.current = next
	s.mu.Unlock()

	observability.StatusChangesTotal.WithLabelValues(string(level)).Inc()
	delivered := s.broadcaster.Broadcast(next)
	slog.Info("status changed", "from", prev, "to", level, "subscribers_notified", delivered)
	return next, nil
}

// Subscribe returns a channel of future status changes.
func (s *Store) Subscribe() (uint64, <-chan models.VolcanoStatus) {
	return s.broadcaster.Subscribe()
}

func (s *Store) Unsubscribe(id uint64) {
	s.broadcaster.Unsubscribe(id)
}

// Close ends all subscriptions.
func (s *Store) Close() {
	s.broadcaster.Close()
}
