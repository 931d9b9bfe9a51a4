package farm

import (
	"github.com/holiman/uint256"

	"github.com/atmx/yield-farm/internal/accumulator"
)

// Position is one user's farm record. Created on first stake and never
// deleted, so reward history survives a full unstake.
type Position struct {
	// Staked is the principal currently staked.
	Staked *uint256.Int

	// RewardDebt is Staked*AccRewardPerShare/Scale at the last checkpoint:
	// reward already priced in and not owed again.
	RewardDebt *uint256.Int

	// Owed is reward settled at a stake checkpoint and not yet paid out.
	// Claim and UnStake pay it together with the pending reward.
	Owed *uint256.Int
}

func newPosition() *Position {
	return &Position{
		Staked:     new(uint256.Int),
		RewardDebt: new(uint256.Int),
		Owed:       new(uint256.Int),
	}
}

// Pending returns reward accrued since the last checkpoint against a
// refreshed accumulator. It never mutates the position.
func (p *Position) Pending(acc *accumulator.Accumulator) *uint256.Int {
	accrued := acc.Accrued(p.Staked)
	if accrued.Lt(p.RewardDebt) {
		return new(uint256.Int)
	}
	return accrued.Sub(accrued, p.RewardDebt)
}

// Claimable is Owed plus Pending, saturating at the 256-bit maximum.
func (p *Position) Claimable(acc *accumulator.Accumulator) *uint256.Int {
	pending := p.Pending(acc)
	if _, overflow := pending.AddOverflow(pending, p.Owed); overflow {
		return pending.SetAllOne()
	}
	return pending
}

// Checkpoint prices in everything accrued up to acc's current value.
// Must follow every change to Staked and every payout.
func (p *Position) Checkpoint(acc *accumulator.Accumulator) {
	p.RewardDebt = acc.Accrued(p.Staked)
}

// settle moves pending reward into Owed. The caller checkpoints afterwards.
func (p *Position) settle(acc *accumulator.Accumulator) {
	p.Owed = p.Claimable(acc)
}

func (p *Position) clone() *Position {
	return &Position{
		Staked:     p.Staked.Clone(),
		RewardDebt: p.RewardDebt.Clone(),
		Owed:       p.Owed.Clone(),
	}
}
