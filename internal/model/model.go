// Package model defines the core domain types shared across the farm ledger.
// All token amounts are base-unit integers held in holiman/uint256, never
// float64 for money.
package model

import (
	"github.com/holiman/uint256"
)

// Address identifies an account on the token ledgers and the farm.
type Address string

// EventKind names a farm notification.
type EventKind string

const (
	EventStaked          EventKind = "Staked"
	EventUnstaked        EventKind = "Unstaked"
	EventClaimed         EventKind = "Claimed"
	EventRateChanged     EventKind = "RateChanged"
	EventRewardDeposited EventKind = "RewardDeposited"
)

// Event is an immutable record of a successful farm operation.
// Once created, these are never modified or deleted.
type Event struct {
	ID        string       `json:"id" db:"id"`
	Kind      EventKind    `json:"kind" db:"kind"`
	User      Address      `json:"user,omitempty" db:"user_address"`
	Amount    *uint256.Int `json:"amount" db:"amount"`           // staked, unstaked, claimed, deposited, or the new rate
	Reward    *uint256.Int `json:"reward,omitempty" db:"reward"` // reward settled by an unstake
	Timestamp uint64       `json:"timestamp" db:"timestamp"`     // farm clock, unix seconds
}

// PoolSnapshot is a read-only view of the global pool state at a moment.
type PoolSnapshot struct {
	TotalStaked       *uint256.Int `json:"total_staked"`
	AccRewardPerShare *uint256.Int `json:"acc_reward_per_share"` // scaled by accumulator.Scale
	RatePerSecond     *uint256.Int `json:"rate_per_second"`
	LastUpdateTime    uint64       `json:"last_update_time"`
	RewardPool        *uint256.Int `json:"reward_pool"` // reward tokens held by the farm
	Timestamp         uint64       `json:"timestamp"`
}

// PositionView is a read-only projection of one user's farm position.
type PositionView struct {
	User       Address      `json:"user"`
	Staked     *uint256.Int `json:"staked"`
	RewardDebt *uint256.Int `json:"reward_debt"`
	Pending    *uint256.Int `json:"pending"`   // accrued since the last checkpoint
	Owed       *uint256.Int `json:"owed"`      // settled at a stake, not yet paid
	Claimable  *uint256.Int `json:"claimable"` // owed + pending
	Timestamp  uint64       `json:"timestamp"`
}

// UserActivity aggregates a user's event history.
type UserActivity struct {
	User          Address      `json:"user"`
	TotalStaked   *uint256.Int `json:"total_staked"`   // Σ Staked amounts
	TotalUnstaked *uint256.Int `json:"total_unstaked"` // Σ Unstaked amounts
	TotalRewards  *uint256.Int `json:"total_rewards"`  // Σ Claimed amounts + Σ Unstaked rewards
	EventCount    int          `json:"event_count"`
	LastActivity  uint64       `json:"last_activity"`
}
