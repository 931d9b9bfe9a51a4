package farm

import (
	"errors"
	"fmt"
)

// Every rejected precondition maps to its own sentinel so callers can match
// the cause with errors.Is. A failed call leaves no partial state behind.
var (
	// ErrUnauthorized is returned when the caller lacks the administrator
	// capability required by DepositRewardToken or SetAccRewardPerSecond.
	ErrUnauthorized = errors.New("farm: caller is not the administrator")

	// ErrInvalidAmount is returned for a zero (or otherwise disallowed) quantity.
	ErrInvalidAmount = errors.New("farm: amount 0")

	// ErrInvalidRate is returned when the reward rate would be set to zero.
	// It also matches ErrInvalidAmount.
	ErrInvalidRate = fmt.Errorf("%w: reward per second can't be 0", ErrInvalidAmount)

	// ErrRateTooHigh is returned for a rate whose one-second accrual would not
	// fit the accumulator. It also matches ErrInvalidRate.
	ErrRateTooHigh = fmt.Errorf("%w: reward per second too high", ErrInvalidRate)

	// ErrStakeOverflow is returned when a stake would overflow the pool total.
	ErrStakeOverflow = errors.New("farm: stake overflows total staked")

	// ErrInsufficientCallerBalance is returned when the caller holds fewer
	// tokens than it asked the farm to pull.
	ErrInsufficientCallerBalance = errors.New("farm: caller has not enough tokens")

	// ErrInsufficientAllowance is returned when the caller approved the farm
	// for less than it asked the farm to pull.
	ErrInsufficientAllowance = errors.New("farm: caller hasn't enough allowance")

	// ErrInsufficientStakedBalance is returned when an unstake exceeds the
	// caller's staked position.
	ErrInsufficientStakedBalance = errors.New("farm: unstake exceeds staked balance")

	// ErrRewardPoolInsufficient is returned when the farm's reward-token
	// holding cannot cover a payout.
	ErrRewardPoolInsufficient = errors.New("farm: reward pool cannot cover payout")
)
