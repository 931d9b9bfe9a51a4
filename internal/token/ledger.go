// Package token implements an in-process fungible token ledger with the
// ERC-20 shape: balances, allowances, transfer, approve, transferFrom and a
// minter-restricted mint.
//
// The farm consumes two independent ledgers (stake token and reward token)
// through its Token interface; this package is the concrete collaborator the
// server deploys.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/atmx/yield-farm/internal/model"
)

var (
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrNotMinter             = errors.New("token: caller is not the minter")
	ErrZeroAddress           = errors.New("token: zero address")
	ErrOverflow              = errors.New("token: amount overflows 256 bits")
)

// DefaultDecimals matches the 18-decimal convention of most fungible tokens.
const DefaultDecimals = 18

// Ledger is a thread-safe fungible token ledger.
type Ledger struct {
	symbol   string
	decimals uint8
	minter   model.Address
	openMint bool

	mu          sync.RWMutex
	balances    map[model.Address]*uint256.Int
	allowances  map[model.Address]map[model.Address]*uint256.Int
	totalSupply *uint256.Int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDecimals overrides DefaultDecimals.
func WithDecimals(d uint8) Option {
	return func(l *Ledger) { l.decimals = d }
}

// WithOpenMint lets any caller mint to itself. Used for test and dev
// deployments of the stake token.
func WithOpenMint() Option {
	return func(l *Ledger) { l.openMint = true }
}

// NewLedger creates an empty ledger whose mint is restricted to minter.
func NewLedger(symbol string, minter model.Address, opts ...Option) *Ledger {
	l := &Ledger{
		symbol:      symbol,
		decimals:    DefaultDecimals,
		minter:      minter,
		balances:    make(map[model.Address]*uint256.Int),
		allowances:  make(map[model.Address]map[model.Address]*uint256.Int),
		totalSupply: new(uint256.Int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Symbol() string  { return l.symbol }
func (l *Ledger) Decimals() uint8 { return l.decimals }

// TotalSupply returns the amount minted so far.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply.Clone()
}

// BalanceOf returns a copy of account's balance (zero for unknown accounts).
func (l *Ledger) BalanceOf(account model.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOf(account).Clone()
}

// Allowance returns how much spender may still move from owner.
func (l *Ledger) Allowance(owner, spender model.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

// Mint creates amount new tokens for to. Only the minter may mint, unless the
// ledger is open-mint and the caller mints to itself.
func (l *Ledger) Mint(caller, to model.Address, amount *uint256.Int) error {
	if to == "" {
		return ErrZeroAddress
	}
	if caller != l.minter && !(l.openMint && caller == to) {
		return fmt.Errorf("%w: %s", ErrNotMinter, caller)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow {
		return fmt.Errorf("%w: supply %s + %s", ErrOverflow, l.totalSupply.Dec(), amount.Dec())
	}
	balance, overflow := new(uint256.Int).AddOverflow(l.balanceOf(to), amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, to)
	}
	l.balances[to] = balance
	l.totalSupply = supply
	return nil
}

// Approve sets spender's allowance over owner's tokens to amount.
func (l *Ledger) Approve(owner, spender model.Address, amount *uint256.Int) error {
	if owner == "" || spender == "" {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[model.Address]*uint256.Int)
		l.allowances[owner] = m
	}
	m[spender] = amount.Clone()
	return nil
}

// Transfer moves amount from from to to.
func (l *Ledger) Transfer(from, to model.Address, amount *uint256.Int) error {
	if from == "" || to == "" {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(from, to, amount)
}

// TransferFrom moves amount from owner to to on behalf of spender, consuming
// spender's allowance.
func (l *Ledger) TransferFrom(spender, owner, to model.Address, amount *uint256.Int) error {
	if owner == "" || to == "" {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowed, ok := l.allowances[owner][spender]
	if !ok || allowed.Lt(amount) {
		return fmt.Errorf("%w: %s -> %s", ErrInsufficientAllowance, owner, spender)
	}
	if err := l.move(owner, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

// move is the shared transfer path. Caller must hold the write lock.
func (l *Ledger) move(from, to model.Address, amount *uint256.Int) error {
	fromBal := l.balanceOf(from)
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBal.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	toBal, overflow := new(uint256.Int).AddOverflow(l.balanceOf(to), amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, to)
	}
	l.balances[from] = new(uint256.Int).Sub(fromBal, amount)
	l.balances[to] = toBal
	return nil
}

func (l *Ledger) balanceOf(account model.Address) *uint256.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(uint256.Int)
}
