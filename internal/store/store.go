// Package store defines the persistence interface for the farm event log.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/atmx/yield-farm/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Immutable event log ---

	// InsertEvent appends an immutable farm event.
	InsertEvent(ctx context.Context, ev *model.Event) error

	// GetEventsByUser returns all events for a user, oldest first.
	GetEventsByUser(ctx context.Context, user model.Address) ([]model.Event, error)

	// ListEvents returns the most recent events, newest first. A limit of
	// zero or less returns everything.
	ListEvents(ctx context.Context, limit int) ([]model.Event, error)

	// --- Aggregates ---

	// GetUserActivity computes the user's totals from the event log.
	GetUserActivity(ctx context.Context, user model.Address) (*model.UserActivity, error)
}

// newActivity returns a zeroed activity record for user.
func newActivity(user model.Address) *model.UserActivity {
	return &model.UserActivity{
		User:          user,
		TotalStaked:   new(uint256.Int),
		TotalUnstaked: new(uint256.Int),
		TotalRewards:  new(uint256.Int),
	}
}

// addEvent folds one event into the activity totals.
func addEvent(a *model.UserActivity, ev *model.Event) {
	switch ev.Kind {
	case model.EventStaked:
		a.TotalStaked.Add(a.TotalStaked, ev.Amount)
	case model.EventUnstaked:
		a.TotalUnstaked.Add(a.TotalUnstaked, ev.Amount)
		if ev.Reward != nil {
			a.TotalRewards.Add(a.TotalRewards, ev.Reward)
		}
	case model.EventClaimed:
		a.TotalRewards.Add(a.TotalRewards, ev.Amount)
	}
	a.EventCount++
	if ev.Timestamp > a.LastActivity {
		a.LastActivity = ev.Timestamp
	}
}
