// Package farm is the yield-farm controller: users stake a principal token
// and earn a reward token in proportion to their share of the pool, and an
// administrator funds the reward pool and sets the emission rate.
//
// Every call is serialised by one mutex and is all-or-nothing. The
// accumulator is refreshed on a working copy and the caller's position is
// edited on a copy; both are committed only after every token movement has
// succeeded. Observers are notified after the lock is released.
package farm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/atmx/yield-farm/internal/accumulator"
	"github.com/atmx/yield-farm/internal/model"
)

// Token is the fungible-token collaborator the farm moves value through.
// The stake token and the reward token are two independent instances.
type Token interface {
	BalanceOf(account model.Address) *uint256.Int
	Allowance(owner, spender model.Address) *uint256.Int
	Transfer(from, to model.Address, amount *uint256.Int) error
	TransferFrom(spender, owner, to model.Address, amount *uint256.Int) error
}

// Authority restricts privileged operations to the administrator.
type Authority interface {
	RequireAdministrator(caller model.Address) error
}

// Notifier observes successful farm operations.
type Notifier interface {
	Notify(ev model.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev model.Event)

func (f NotifierFunc) Notify(ev model.Event) { f(ev) }

// Farm is the single-pool farm controller.
type Farm struct {
	address model.Address
	stake   Token
	reward  Token
	gate    Authority
	clock   Clock

	mu        sync.Mutex
	acc       *accumulator.Accumulator
	positions map[model.Address]*Position
	notifiers []Notifier
}

// New creates a farm holding tokens at address. Pass nil for clock to use
// the wall clock.
func New(address model.Address, stakeToken, rewardToken Token, gate Authority, clock Clock) *Farm {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Farm{
		address:   address,
		stake:     stakeToken,
		reward:    rewardToken,
		gate:      gate,
		clock:     clock,
		acc:       accumulator.New(clock.Now()),
		positions: make(map[model.Address]*Position),
	}
}

// Address returns the account the farm holds tokens under.
func (f *Farm) Address() model.Address { return f.address }

// Subscribe registers n for every future notification.
func (f *Farm) Subscribe(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers = append(f.notifiers, n)
}

// --- Administrative operations ---

// DepositRewardToken pulls amount reward tokens from the administrator into
// the farm's reward pool. The accumulator is not touched.
func (f *Farm) DepositRewardToken(caller model.Address, amount *uint256.Int) error {
	ev, err := f.depositRewardToken(caller, amount)
	if err != nil {
		return err
	}
	f.notify(ev)
	slog.Info("reward pool funded", "admin", caller, "amount", amount.Dec())
	return nil
}

func (f *Farm) depositRewardToken(caller model.Address, amount *uint256.Int) (model.Event, error) {
	if err := f.requireAdmin(caller); err != nil {
		return model.Event{}, err
	}
	if isZero(amount) {
		return model.Event{}, ErrInvalidAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkPull(f.reward, caller, amount); err != nil {
		return model.Event{}, err
	}
	if err := f.reward.TransferFrom(f.address, caller, f.address, amount); err != nil {
		return model.Event{}, fmt.Errorf("farm: pull reward tokens: %w", err)
	}
	return f.event(model.EventRewardDeposited, caller, amount, nil, f.clock.Now()), nil
}

// SetAccRewardPerSecond changes the emission rate. Time elapsed up to now
// accrues at the old rate before the new one takes effect. A zero rate or one
// above accumulator.MaxRatePerSecond is rejected.
func (f *Farm) SetAccRewardPerSecond(caller model.Address, rate *uint256.Int) error {
	ev, err := f.setAccRewardPerSecond(caller, rate)
	if err != nil {
		return err
	}
	f.notify(ev)
	slog.Info("reward rate changed", "admin", caller, "rate", rate.Dec())
	return nil
}

func (f *Farm) setAccRewardPerSecond(caller model.Address, rate *uint256.Int) (model.Event, error) {
	if err := f.requireAdmin(caller); err != nil {
		return model.Event{}, err
	}
	if isZero(rate) {
		return model.Event{}, ErrInvalidRate
	}
	if !accumulator.RateFits(rate) {
		return model.Event{}, fmt.Errorf("%w: %s exceeds %s", ErrRateTooHigh, rate.Dec(), accumulator.MaxRatePerSecond.Dec())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	acc := f.refreshed()
	acc.SetRate(rate)
	f.acc = acc
	return f.event(model.EventRateChanged, caller, rate, nil, acc.LastUpdateTime), nil
}

// --- User operations ---

// Stake pulls amount principal from caller into the farm. Reward pending at
// this instant is settled into the position's Owed balance (not paid) and the
// position is re-checkpointed against the larger stake.
func (f *Farm) Stake(caller model.Address, amount *uint256.Int) error {
	ev, err := f.doStake(caller, amount)
	if err != nil {
		return err
	}
	f.notify(ev)
	slog.Info("staked", "user", caller, "amount", amount.Dec())
	return nil
}

func (f *Farm) doStake(caller model.Address, amount *uint256.Int) (model.Event, error) {
	if isZero(amount) {
		return model.Event{}, ErrInvalidAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	acc := f.refreshed()
	pos := f.positionCopy(caller)

	if err := f.checkPull(f.stake, caller, amount); err != nil {
		return model.Event{}, err
	}

	// acc is a working copy, so a rejected deposit leaves the pool untouched.
	if err := acc.Deposit(amount); err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", ErrStakeOverflow, err)
	}
	pos.settle(acc)
	if err := f.stake.TransferFrom(f.address, caller, f.address, amount); err != nil {
		return model.Event{}, fmt.Errorf("farm: pull stake tokens: %w", err)
	}
	pos.Staked.Add(pos.Staked, amount)
	pos.Checkpoint(acc)

	f.commit(acc, caller, pos)
	return f.event(model.EventStaked, caller, amount, nil, acc.LastUpdateTime), nil
}

// UnStake settles the caller's full claimable reward and returns amount
// principal. A partial unstake still pays out all reward.
// A zero amount returns ErrInvalidAmount.
func (f *Farm) UnStake(caller model.Address, amount *uint256.Int) error {
	ev, err := f.doUnstake(caller, amount)
	if err != nil {
		return err
	}
	f.notify(ev)
	slog.Info("unstaked", "user", caller, "amount", amount.Dec(), "reward", ev.Reward.Dec())
	return nil
}

func (f *Farm) doUnstake(caller model.Address, amount *uint256.Int) (model.Event, error) {
	if isZero(amount) {
		return model.Event{}, ErrInvalidAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	acc := f.refreshed()
	pos := f.positionCopy(caller)

	if amount.Gt(pos.Staked) {
		return model.Event{}, fmt.Errorf("%w: staked %s, requested %s",
			ErrInsufficientStakedBalance, pos.Staked.Dec(), amount.Dec())
	}

	payout := pos.Claimable(acc)
	var j journal
	if err := f.payReward(&j, caller, payout); err != nil {
		return model.Event{}, err
	}
	if err := f.stake.Transfer(f.address, caller, amount); err != nil {
		j.rollback()
		return model.Event{}, fmt.Errorf("farm: return stake tokens: %w", err)
	}
	j.add("reclaim stake", func() error {
		return f.stake.Transfer(caller, f.address, amount)
	})
	if err := acc.Withdraw(amount); err != nil {
		j.rollback()
		return model.Event{}, fmt.Errorf("farm: %w", err)
	}

	pos.Staked.Sub(pos.Staked, amount)
	pos.Owed.Clear()
	pos.Checkpoint(acc)

	f.commit(acc, caller, pos)
	return f.event(model.EventUnstaked, caller, amount, payout, acc.LastUpdateTime), nil
}

// Claim pays the caller's claimable reward. A zero payout succeeds as a no-op
// and still emits Claimed.
func (f *Farm) Claim(caller model.Address) error {
	ev, err := f.doClaim(caller)
	if err != nil {
		return err
	}
	f.notify(ev)
	slog.Info("claimed", "user", caller, "amount", ev.Amount.Dec())
	return nil
}

func (f *Farm) doClaim(caller model.Address) (model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc := f.refreshed()
	pos := f.positionCopy(caller)
	payout := pos.Claimable(acc)

	var j journal
	if err := f.payReward(&j, caller, payout); err != nil {
		return model.Event{}, err
	}

	if _, ok := f.positions[caller]; ok {
		pos.Owed.Clear()
		pos.Checkpoint(acc)
		f.commit(acc, caller, pos)
	} else {
		// No position to checkpoint; only the accumulator advances.
		f.acc = acc
	}
	return f.event(model.EventClaimed, caller, payout, nil, acc.LastUpdateTime), nil
}

// --- Queries ---
// Queries refresh a clone of the accumulator and never write it back.

// PendingRewardOf returns reward accrued since the user's last checkpoint.
func (f *Farm) PendingRewardOf(user model.Address) *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, ok := f.positions[user]
	if !ok {
		return new(uint256.Int)
	}
	return pos.Pending(f.refreshed())
}

// ClaimableOf returns what Claim would pay the user right now.
func (f *Farm) ClaimableOf(user model.Address) *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, ok := f.positions[user]
	if !ok {
		return new(uint256.Int)
	}
	return pos.Claimable(f.refreshed())
}

// StakedBalanceOf returns the user's staked principal.
func (f *Farm) StakedBalanceOf(user model.Address) *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pos, ok := f.positions[user]; ok {
		return pos.Staked.Clone()
	}
	return new(uint256.Int)
}

// CurrentRate returns the reward emitted per second.
func (f *Farm) CurrentRate() *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acc.RatePerSecond.Clone()
}

// TotalStaked returns the principal staked across all users.
func (f *Farm) TotalStaked() *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acc.TotalStaked.Clone()
}

// RewardPoolBalance returns the reward tokens held by the farm.
func (f *Farm) RewardPoolBalance() *uint256.Int {
	return f.reward.BalanceOf(f.address)
}

// Snapshot returns the pool state projected to now.
func (f *Farm) Snapshot() model.PoolSnapshot {
	f.mu.Lock()
	now := f.clock.Now()
	acc := f.refreshed()
	f.mu.Unlock()

	return model.PoolSnapshot{
		TotalStaked:       acc.TotalStaked,
		AccRewardPerShare: acc.AccRewardPerShare,
		RatePerSecond:     acc.RatePerSecond,
		LastUpdateTime:    acc.LastUpdateTime,
		RewardPool:        f.RewardPoolBalance(),
		Timestamp:         now,
	}
}

// Position returns the user's position projected to now. Users that never
// staked get a zero view.
func (f *Farm) Position(user model.Address) model.PositionView {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc := f.refreshed()
	pos, ok := f.positions[user]
	if !ok {
		pos = newPosition()
	}
	return model.PositionView{
		User:       user,
		Staked:     pos.Staked.Clone(),
		RewardDebt: pos.RewardDebt.Clone(),
		Pending:    pos.Pending(acc),
		Owed:       pos.Owed.Clone(),
		Claimable:  pos.Claimable(acc),
		Timestamp:  f.clock.Now(),
	}
}

// --- internals ---

func (f *Farm) requireAdmin(caller model.Address) error {
	if err := f.gate.RequireAdministrator(caller); err != nil {
		slog.Warn("privileged call rejected", "caller", caller, "err", err)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// refreshed returns a clone of the accumulator caught up to now.
// Caller must hold f.mu.
func (f *Farm) refreshed() *accumulator.Accumulator {
	acc := f.acc.Clone()
	acc.Refresh(f.clock.Now())
	return acc
}

// positionCopy returns a working copy of user's position, or a fresh one.
// Caller must hold f.mu.
func (f *Farm) positionCopy(user model.Address) *Position {
	if pos, ok := f.positions[user]; ok {
		return pos.clone()
	}
	return newPosition()
}

// commit publishes the working copies. Caller must hold f.mu.
func (f *Farm) commit(acc *accumulator.Accumulator, user model.Address, pos *Position) {
	f.acc = acc
	f.positions[user] = pos
}

// checkPull validates that the farm can pull amount of tok from owner:
// balance first, then allowance.
func (f *Farm) checkPull(tok Token, owner model.Address, amount *uint256.Int) error {
	if bal := tok.BalanceOf(owner); bal.Lt(amount) {
		return fmt.Errorf("%w: has %s, needs %s", ErrInsufficientCallerBalance, bal.Dec(), amount.Dec())
	}
	if allowed := tok.Allowance(owner, f.address); allowed.Lt(amount) {
		return fmt.Errorf("%w: approved %s, needs %s", ErrInsufficientAllowance, allowed.Dec(), amount.Dec())
	}
	return nil
}

// payReward checks solvency and transfers payout to user, recording the
// compensating transfer in j.
func (f *Farm) payReward(j *journal, user model.Address, payout *uint256.Int) error {
	if payout.IsZero() {
		return nil
	}
	if pool := f.reward.BalanceOf(f.address); pool.Lt(payout) {
		return fmt.Errorf("%w: pool %s, payout %s", ErrRewardPoolInsufficient, pool.Dec(), payout.Dec())
	}
	if err := f.reward.Transfer(f.address, user, payout); err != nil {
		return fmt.Errorf("farm: pay reward: %w", err)
	}
	j.add("return reward", func() error {
		return f.reward.Transfer(user, f.address, payout)
	})
	return nil
}

func (f *Farm) event(kind model.EventKind, user model.Address, amount, reward *uint256.Int, ts uint64) model.Event {
	ev := model.Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		User:      user,
		Amount:    amount.Clone(),
		Timestamp: ts,
	}
	if reward != nil {
		ev.Reward = reward.Clone()
	}
	return ev
}

func (f *Farm) notify(ev model.Event) {
	f.mu.Lock()
	notifiers := append([]Notifier(nil), f.notifiers...)
	f.mu.Unlock()

	for _, n := range notifiers {
		n.Notify(ev)
	}
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}
