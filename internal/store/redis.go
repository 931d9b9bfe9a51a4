package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/yield-farm/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	if err := s.primary.InsertEvent(ctx, ev); err != nil {
		return err
	}
	// Invalidate everything derived from this user's history.
	s.rdb.Del(ctx, activityKey(ev.User), eventsKey(ev.User))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetEventsByUser(ctx context.Context, user model.Address) ([]model.Event, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, eventsKey(user)).Bytes()
	if err == nil {
		var events []model.Event
		if json.Unmarshal(data, &events) == nil {
			return events, nil
		}
	}

	// Cache miss: read from primary.
	events, err := s.primary.GetEventsByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, eventsKey(user), events)
	return events, nil
}

func (s *CachedStore) GetUserActivity(ctx context.Context, user model.Address) (*model.UserActivity, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, activityKey(user)).Bytes()
	if err == nil {
		var a model.UserActivity
		if json.Unmarshal(data, &a) == nil {
			return &a, nil
		}
	}

	// Cache miss.
	a, err := s.primary.GetUserActivity(ctx, user)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, activityKey(user), a)
	return a, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.primary.ListEvents(ctx, limit)
}

// --- Cache helpers ---

func (s *CachedStore) cache(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func activityKey(user model.Address) string { return fmt.Sprintf("activity:%s", user) }
func eventsKey(user model.Address) string   { return fmt.Sprintf("events:%s", user) }
