package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/atmx/yield-farm/internal/model"
)

// MemoryStore implements Store with an in-memory slice. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
	ids    map[string]struct{}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

func (s *MemoryStore) InsertEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[ev.ID]; dup {
		return fmt.Errorf("event %s already exists", ev.ID)
	}
	s.ids[ev.ID] = struct{}{}
	// Store a copy to avoid external mutation.
	s.events = append(s.events, cloneEvent(*ev))
	return nil
}

func (s *MemoryStore) GetEventsByUser(_ context.Context, user model.Address) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Event
	for _, e := range s.events {
		if e.User == user {
			result = append(result, cloneEvent(e))
		}
	}
	return result, nil
}

func (s *MemoryStore) ListEvents(_ context.Context, limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]model.Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, cloneEvent(s.events[i]))
	}
	return result, nil
}

// GetUserActivity aggregates the user's events in a single pass.
func (s *MemoryStore) GetUserActivity(_ context.Context, user model.Address) (*model.UserActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := newActivity(user)
	for i := range s.events {
		if s.events[i].User == user {
			addEvent(a, &s.events[i])
		}
	}
	return a, nil
}

func cloneEvent(e model.Event) model.Event {
	if e.Amount != nil {
		e.Amount = e.Amount.Clone()
	}
	if e.Reward != nil {
		e.Reward = e.Reward.Clone()
	}
	return e
}
