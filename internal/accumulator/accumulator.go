// Package accumulator implements the time-weighted reward accumulator for a
// single-pool yield farm.
//
// The accumulator keeps one running value, AccRewardPerShare: the total reward
// earned by one unit of staked principal since the pool was created. A user's
// reward for any interval is then
//
//	staked * (acc_end - acc_start) / Scale
//
// so no per-user iteration is ever needed. Accrual is lazy: callers invoke
// Refresh(now) before reading or mutating anything that depends on the value.
//
// All arithmetic is unsigned 256-bit integer math (holiman/uint256). Fractions
// of a reward unit per share are preserved by the fixed-point Scale.
package accumulator

import (
	"errors"

	"github.com/holiman/uint256"
)

// ScaleExponent is the power of ten AccRewardPerShare is scaled by.
const ScaleExponent = 12

// Scale is the fixed-point multiplier applied to AccRewardPerShare (10^12).
// Part of the numeric contract: stored accumulator values and reward debts are
// only meaningful against this scale.
var Scale = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(ScaleExponent))

var (
	// ErrWithdrawExceedsTotal is returned when Withdraw would make TotalStaked negative.
	ErrWithdrawExceedsTotal = errors.New("accumulator: withdraw exceeds total staked")
	// ErrDepositOverflow is returned when Deposit would wrap TotalStaked.
	ErrDepositOverflow = errors.New("accumulator: deposit overflows total staked")
)

// MaxRatePerSecond is the largest rate whose one-second emission, scaled by
// Scale, still fits in 256 bits.
var MaxRatePerSecond = new(uint256.Int).Div(new(uint256.Int).SetAllOne(), Scale)

// RateFits reports whether rate is at most MaxRatePerSecond.
func RateFits(rate *uint256.Int) bool {
	return !rate.Gt(MaxRatePerSecond)
}

// Accumulator is the global pool state. The zero value is not usable; use New.
type Accumulator struct {
	// TotalStaked is the sum of principal currently staked by all users.
	TotalStaked *uint256.Int

	// AccRewardPerShare is the cumulative reward per staked unit, times Scale.
	// It never decreases.
	AccRewardPerShare *uint256.Int

	// LastUpdateTime is the unix second of the most recent Refresh.
	LastUpdateTime uint64

	// RatePerSecond is the reward emitted per second across all stakers.
	// Zero until the administrator sets it.
	RatePerSecond *uint256.Int
}

// New returns an accumulator with zeroed counters and an unset rate,
// anchored at start.
func New(start uint64) *Accumulator {
	return &Accumulator{
		TotalStaked:       new(uint256.Int),
		AccRewardPerShare: new(uint256.Int),
		LastUpdateTime:    start,
		RatePerSecond:     new(uint256.Int),
	}
}

// Refresh advances the accumulator to now.
//
// When TotalStaked is zero the interval's emission is skipped, not banked:
// only LastUpdateTime moves. A now at or before LastUpdateTime is a no-op,
// which makes Refresh idempotent for repeated calls at the same instant.
//
// AccRewardPerShare saturates at the 256-bit maximum instead of wrapping.
func (a *Accumulator) Refresh(now uint64) {
	if now <= a.LastUpdateTime {
		return
	}
	elapsed := now - a.LastUpdateTime
	a.LastUpdateTime = now

	if a.TotalStaked.IsZero() || a.RatePerSecond.IsZero() {
		return
	}

	// delta = elapsed * rate * Scale / totalStaked
	emitted, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(elapsed), a.RatePerSecond)
	if overflow {
		a.AccRewardPerShare.SetAllOne()
		return
	}
	delta, overflow := new(uint256.Int).MulDivOverflow(emitted, Scale, a.TotalStaked)
	if overflow {
		a.AccRewardPerShare.SetAllOne()
		return
	}
	if _, overflow = a.AccRewardPerShare.AddOverflow(a.AccRewardPerShare, delta); overflow {
		a.AccRewardPerShare.SetAllOne()
	}
}

// Accrued returns staked * AccRewardPerShare / Scale, the gross reward a
// position of size staked has earned since inception. The product is taken
// at 512 bits; a quotient that does not fit saturates at the maximum.
func (a *Accumulator) Accrued(staked *uint256.Int) *uint256.Int {
	if staked == nil || staked.IsZero() {
		return new(uint256.Int)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(staked, a.AccRewardPerShare, Scale)
	if overflow {
		return out.SetAllOne()
	}
	return out
}

// Deposit adds amount to TotalStaked.
func (a *Accumulator) Deposit(amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(a.TotalStaked, amount)
	if overflow {
		return ErrDepositOverflow
	}
	a.TotalStaked = sum
	return nil
}

// Withdraw subtracts amount from TotalStaked.
func (a *Accumulator) Withdraw(amount *uint256.Int) error {
	if amount.Gt(a.TotalStaked) {
		return ErrWithdrawExceedsTotal
	}
	a.TotalStaked.Sub(a.TotalStaked, amount)
	return nil
}

// SetRate replaces the emission rate. Callers must Refresh first so the old
// rate applies to all time elapsed up to the change.
func (a *Accumulator) SetRate(rate *uint256.Int) {
	a.RatePerSecond = rate.Clone()
}

// Clone returns a deep copy. Views and transactional working copies refresh a
// clone so the shared state is not written until a call commits.
func (a *Accumulator) Clone() *Accumulator {
	return &Accumulator{
		TotalStaked:       a.TotalStaked.Clone(),
		AccRewardPerShare: a.AccRewardPerShare.Clone(),
		LastUpdateTime:    a.LastUpdateTime,
		RatePerSecond:     a.RatePerSecond.Clone(),
	}
}
