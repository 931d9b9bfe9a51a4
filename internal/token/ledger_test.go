package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/atmx/yield-farm/internal/model"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

const (
	owner = model.Address("owner")
	alice = model.Address("alice")
	farm  = model.Address("farm")
)

func TestMint_OnlyMinter(t *testing.T) {
	l := NewLedger("RWD", owner)

	require.NoError(t, l.Mint(owner, owner, u(100)))
	require.ErrorIs(t, l.Mint(alice, alice, u(100)), ErrNotMinter)
	require.Equal(t, uint64(100), l.BalanceOf(owner).Uint64())
	require.Equal(t, uint64(100), l.TotalSupply().Uint64())
}

func TestMint_OpenMintSelfOnly(t *testing.T) {
	l := NewLedger("STK", owner, WithOpenMint())

	require.NoError(t, l.Mint(alice, alice, u(5)))
	require.ErrorIs(t, l.Mint(alice, farm, u(5)), ErrNotMinter)
	require.Equal(t, uint64(5), l.BalanceOf(alice).Uint64())
}

func TestMint_ZeroAddress(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.ErrorIs(t, l.Mint(owner, "", u(1)), ErrZeroAddress)
}

func TestTransfer(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.NoError(t, l.Mint(owner, owner, u(10)))

	require.NoError(t, l.Transfer(owner, alice, u(4)))
	require.Equal(t, uint64(6), l.BalanceOf(owner).Uint64())
	require.Equal(t, uint64(4), l.BalanceOf(alice).Uint64())

	err := l.Transfer(alice, owner, u(5))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint64(4), l.BalanceOf(alice).Uint64())
}

func TestTransfer_Self(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.NoError(t, l.Mint(owner, owner, u(10)))
	require.NoError(t, l.Transfer(owner, owner, u(10)))
	require.Equal(t, uint64(10), l.BalanceOf(owner).Uint64())
}

func TestTransferFrom_ConsumesAllowance(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.NoError(t, l.Mint(owner, owner, u(100)))
	require.NoError(t, l.Approve(owner, farm, u(60)))

	require.NoError(t, l.TransferFrom(farm, owner, farm, u(50)))
	require.Equal(t, uint64(10), l.Allowance(owner, farm).Uint64())
	require.Equal(t, uint64(50), l.BalanceOf(farm).Uint64())

	require.ErrorIs(t, l.TransferFrom(farm, owner, farm, u(11)), ErrInsufficientAllowance)
}

func TestTransferFrom_InsufficientBalanceKeepsAllowance(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.NoError(t, l.Mint(owner, owner, u(5)))
	require.NoError(t, l.Approve(owner, farm, u(50)))

	require.ErrorIs(t, l.TransferFrom(farm, owner, farm, u(10)), ErrInsufficientBalance)
	require.Equal(t, uint64(50), l.Allowance(owner, farm).Uint64())
}

func TestAllowance_UnknownIsZero(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.True(t, l.Allowance(alice, farm).IsZero())
	require.True(t, l.BalanceOf(alice).IsZero())
}

func TestBalanceOf_ReturnsCopy(t *testing.T) {
	l := NewLedger("RWD", owner)
	require.NoError(t, l.Mint(owner, owner, u(10)))

	b := l.BalanceOf(owner)
	b.SetUint64(1_000_000)
	require.Equal(t, uint64(10), l.BalanceOf(owner).Uint64())
}

func TestDecimals(t *testing.T) {
	require.Equal(t, uint8(DefaultDecimals), NewLedger("A", owner).Decimals())
	require.Equal(t, uint8(6), NewLedger("B", owner, WithDecimals(6)).Decimals())
}

func TestMint_OverflowRejected(t *testing.T) {
	l := NewLedger("STK", owner, WithOpenMint())
	require.NoError(t, l.Mint(alice, alice, u(1000)))

	ceiling := new(uint256.Int).SetAllOne()
	require.ErrorIs(t, l.Mint(owner, owner, ceiling), ErrOverflow)
	require.Equal(t, uint64(1000), l.TotalSupply().Uint64())
	require.True(t, l.BalanceOf(owner).IsZero())

	// Filling the remaining headroom exactly is allowed.
	room := new(uint256.Int).Sub(ceiling, u(1000))
	require.NoError(t, l.Mint(owner, owner, room))
	require.True(t, l.TotalSupply().Eq(ceiling))
	require.ErrorIs(t, l.Mint(owner, owner, u(1)), ErrOverflow)
}
