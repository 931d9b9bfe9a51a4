package accumulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestNew_Zeroed(t *testing.T) {
	a := New(100)
	require.True(t, a.TotalStaked.IsZero())
	require.True(t, a.AccRewardPerShare.IsZero())
	require.True(t, a.RatePerSecond.IsZero())
	require.Equal(t, uint64(100), a.LastUpdateTime)
}

func TestScale(t *testing.T) {
	require.Equal(t, "1000000000000", Scale.Dec())
}

func TestRefresh_AccruesProportionally(t *testing.T) {
	a := New(0)
	a.SetRate(u(100))
	require.NoError(t, a.Deposit(u(1000)))

	a.Refresh(10)

	// 10s * 100/s * 1e12 / 1000 = 1e12
	require.Equal(t, "1000000000000", a.AccRewardPerShare.Dec())
	require.Equal(t, uint64(10), a.LastUpdateTime)
	require.Equal(t, "1000", a.Accrued(u(1000)).Dec())
}

func TestRefresh_EmptyPoolSkipsEmission(t *testing.T) {
	a := New(0)
	a.SetRate(u(1_000_000))

	a.Refresh(86_400)
	require.True(t, a.AccRewardPerShare.IsZero())
	require.Equal(t, uint64(86_400), a.LastUpdateTime)

	// Emission during the empty interval is not banked for the next staker.
	require.NoError(t, a.Deposit(u(1000)))
	a.Refresh(86_401)
	require.Equal(t, "1000000000000000", a.AccRewardPerShare.Dec())
}

func TestRefresh_Idempotent(t *testing.T) {
	a := New(0)
	a.SetRate(u(7))
	require.NoError(t, a.Deposit(u(3)))

	a.Refresh(50)
	once := a.AccRewardPerShare.Clone()
	a.Refresh(50)
	require.True(t, once.Eq(a.AccRewardPerShare))
}

func TestRefresh_BackwardsClockIsNoop(t *testing.T) {
	a := New(100)
	a.SetRate(u(5))
	require.NoError(t, a.Deposit(u(10)))

	a.Refresh(90)
	require.True(t, a.AccRewardPerShare.IsZero())
	require.Equal(t, uint64(100), a.LastUpdateTime)
}

func TestRefresh_Monotonic(t *testing.T) {
	a := New(0)
	a.SetRate(u(3))
	prev := new(uint256.Int)

	stakes := []uint64{1, 1000, 0, 77, 5}
	for i, s := range stakes {
		if s > 0 {
			require.NoError(t, a.Deposit(u(s)))
		} else {
			require.NoError(t, a.Withdraw(a.TotalStaked.Clone()))
		}
		a.Refresh(uint64(i+1) * 60)
		require.False(t, a.AccRewardPerShare.Lt(prev), "accumulator decreased at step %d", i)
		prev = a.AccRewardPerShare.Clone()
	}
}

func TestWithdraw_ExceedsTotal(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Deposit(u(10)))
	require.ErrorIs(t, a.Withdraw(u(11)), ErrWithdrawExceedsTotal)
	require.Equal(t, uint64(10), a.TotalStaked.Uint64())
}

func TestClone_IsDeep(t *testing.T) {
	a := New(0)
	a.SetRate(u(1))
	require.NoError(t, a.Deposit(u(1)))

	c := a.Clone()
	c.Refresh(1000)
	require.NoError(t, c.Deposit(u(5)))

	require.True(t, a.AccRewardPerShare.IsZero())
	require.Equal(t, uint64(1), a.TotalStaked.Uint64())
	require.Equal(t, uint64(0), a.LastUpdateTime)
}

func TestAccrued_ZeroStake(t *testing.T) {
	a := New(0)
	a.SetRate(u(1))
	require.NoError(t, a.Deposit(u(1)))
	a.Refresh(100)
	require.True(t, a.Accrued(nil).IsZero())
	require.True(t, a.Accrued(new(uint256.Int)).IsZero())
}

func TestDeposit_OverflowRejected(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Deposit(u(1000)))

	ceiling := new(uint256.Int).SetAllOne()
	require.ErrorIs(t, a.Deposit(ceiling), ErrDepositOverflow)
	require.Equal(t, uint64(1000), a.TotalStaked.Uint64())
}

func TestRateFits(t *testing.T) {
	require.True(t, RateFits(u(1)))
	require.True(t, RateFits(MaxRatePerSecond))
	require.False(t, RateFits(new(uint256.Int).AddUint64(MaxRatePerSecond, 1)))

	// One second at the maximum rate over a single staked unit fits.
	_, overflow := new(uint256.Int).MulOverflow(MaxRatePerSecond, Scale)
	require.False(t, overflow)
}

func TestRefresh_SaturatesAtMaxRate(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Deposit(u(1)))
	a.SetRate(u(1))
	a.Refresh(10)
	before := a.AccRewardPerShare.Clone()
	require.Equal(t, "10000000000000", before.Dec())

	a.SetRate(MaxRatePerSecond)
	a.Refresh(11)
	require.False(t, a.AccRewardPerShare.Lt(before), "accumulator decreased")
	require.True(t, a.AccRewardPerShare.Eq(new(uint256.Int).SetAllOne()))

	// Saturated stays saturated.
	a.Refresh(1_000_000)
	require.True(t, a.AccRewardPerShare.Eq(new(uint256.Int).SetAllOne()))
}

func TestRefresh_LongIntervalAtMaxRateSaturates(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Deposit(u(1000)))
	a.SetRate(MaxRatePerSecond)

	a.Refresh(1 << 40)
	require.True(t, a.AccRewardPerShare.Eq(new(uint256.Int).SetAllOne()))
}

func TestAccrued_WideProductDoesNotWrap(t *testing.T) {
	a := New(0)
	// 2^60 * 2^200 needs 261 bits; the quotient by Scale fits.
	a.AccRewardPerShare = new(uint256.Int).Lsh(u(1), 200)
	staked := new(uint256.Int).Lsh(u(1), 60)

	// 2^260 / (2^12 * 5^12) = 2^248 / 5^12
	five12 := new(uint256.Int).Exp(u(5), u(12))
	want := new(uint256.Int).Div(new(uint256.Int).Lsh(u(1), 248), five12)
	require.True(t, a.Accrued(staked).Eq(want))

	a.AccRewardPerShare = new(uint256.Int).SetAllOne()
	require.True(t, a.Accrued(new(uint256.Int).SetAllOne()).Eq(new(uint256.Int).SetAllOne()))
}
