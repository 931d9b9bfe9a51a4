package store

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmx/yield-farm/internal/model"
)

// schema creates the event log. Amounts are base-unit integers, so NUMERIC(78,0)
// holds any 256-bit value exactly.
const schema = `
CREATE TABLE IF NOT EXISTS farm_events (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	user_address TEXT NOT NULL,
	amount       NUMERIC(78, 0) NOT NULL,
	reward       NUMERIC(78, 0),
	timestamp    BIGINT NOT NULL,
	seq          BIGSERIAL
);
CREATE INDEX IF NOT EXISTS farm_events_user_idx ON farm_events (user_address, seq);
`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All token amounts are stored as NUMERIC for exact integer precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the event table and index if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	var reward *string
	if ev.Reward != nil {
		r := ev.Reward.Dec()
		reward = &r
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO farm_events (id, kind, user_address, amount, reward, timestamp)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6)`,
		ev.ID, string(ev.Kind), string(ev.User),
		ev.Amount.Dec(), reward, int64(ev.Timestamp),
	)
	return err
}

func (s *PostgresStore) GetEventsByUser(ctx context.Context, user model.Address) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::TEXT, kind, user_address, amount::TEXT, reward::TEXT, timestamp
		 FROM farm_events WHERE user_address = $1 ORDER BY seq`, string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	query := `SELECT id::TEXT, kind, user_address, amount::TEXT, reward::TEXT, timestamp
		 FROM farm_events ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) GetUserActivity(ctx context.Context, user model.Address) (*model.UserActivity, error) {
	var staked, unstaked, rewards string
	var count int
	var last int64

	err := s.pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN kind = 'Staked'   THEN amount ELSE 0 END), 0)::TEXT,
			COALESCE(SUM(CASE WHEN kind = 'Unstaked' THEN amount ELSE 0 END), 0)::TEXT,
			COALESCE(SUM(CASE WHEN kind = 'Claimed'  THEN amount
			                  WHEN kind = 'Unstaked' THEN COALESCE(reward, 0)
			                  ELSE 0 END), 0)::TEXT,
			COUNT(*),
			COALESCE(MAX(timestamp), 0)
		 FROM farm_events WHERE user_address = $1`, string(user)).
		Scan(&staked, &unstaked, &rewards, &count, &last)
	if err != nil {
		return nil, fmt.Errorf("get activity for %s: %w", user, err)
	}

	a := newActivity(user)
	if a.TotalStaked, err = parseAmount(staked); err != nil {
		return nil, err
	}
	if a.TotalUnstaked, err = parseAmount(unstaked); err != nil {
		return nil, err
	}
	if a.TotalRewards, err = parseAmount(rewards); err != nil {
		return nil, err
	}
	a.EventCount = count
	a.LastActivity = uint64(last)
	return a, nil
}

// scanEvents reads pgx rows into Event slices.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanEvents(rows pgxRows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var e model.Event
		var kind, user, amountS string
		var rewardS *string
		var ts int64

		if err := rows.Scan(&e.ID, &kind, &user, &amountS, &rewardS, &ts); err != nil {
			return nil, err
		}

		e.Kind = model.EventKind(kind)
		e.User = model.Address(user)
		e.Timestamp = uint64(ts)

		var err error
		if e.Amount, err = parseAmount(amountS); err != nil {
			return nil, err
		}
		if rewardS != nil {
			if e.Reward, err = parseAmount(*rewardS); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return v, nil
}
