package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

func u(s string) uint256.Int {
	return *uint256.MustFromDecimal(s)
}

func totals(pooled, shares string) types.Totals {
	return types.Totals{TotalPooledEther: u(pooled), TotalShares: u(shares)}
}

func TestProportionalSplit(t *testing.T) {
	t.Run("floors", func(t *testing.T) {
		a, n, d := u("10"), u("1"), u("3")
		res, err := ProportionalSplit(&a, &n, &d)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), res.Uint64())
	})
	t.Run("division by zero", func(t *testing.T) {
		a, n, d := u("10"), u("1"), u("0")
		_, err := ProportionalSplit(&a, &n, &d)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
	t.Run("intermediate product wider than 256 bits", func(t *testing.T) {
		// (2^255) * 4 / 8 fits although the product does not
		a := *new(uint256.Int).Lsh(uint256.NewInt(1), 255)
		n, d := u("4"), u("8")
		res, err := ProportionalSplit(&a, &n, &d)
		require.NoError(t, err)
		expected := new(uint256.Int).Lsh(uint256.NewInt(1), 254)
		assert.True(t, res.Eq(expected))
	})
	t.Run("quotient overflow", func(t *testing.T) {
		a := *new(uint256.Int).Lsh(uint256.NewInt(1), 255)
		n, d := u("4"), u("1")
		_, err := ProportionalSplit(&a, &n, &d)
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestMintShares(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		totals   types.Totals
		expected string
	}{
		{"empty pool mints 1:1", "1000000000000000000", totals("0", "0"), "1000000000000000000"},
		{"zero shares mints 1:1", "5", totals("10", "0"), "5"},
		{"proportional", "500000000000000000", totals("1100000000000000000", "1000000000000000000"), "454545454545454545"},
		{"rounding to zero falls back", "1", totals("1000", "1"), "1"},
		{"zero amount", "0", totals("10", "10"), "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := MintShares(u(tc.amount), tc.totals)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, shares.Dec())
		})
	}
}

func TestSharesToEther(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		eth, err := SharesToEther(u("100"), totals("300", "200"))
		require.NoError(t, err)
		assert.Equal(t, "150", eth.Dec())
	})
	t.Run("no shares", func(t *testing.T) {
		_, err := SharesToEther(u("100"), totals("300", "0"))
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestEtherToShares(t *testing.T) {
	shares, err := EtherToShares(u("7"), totals("3", "2"))
	require.NoError(t, err)
	assert.Equal(t, "4", shares.Dec())

	_, err = EtherToShares(u("7"), totals("0", "0"))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestFeeShares(t *testing.T) {
	before := totals("100000000000000000000", "100000000000000000000")

	t.Run("ten percent of ten ether", func(t *testing.T) {
		shares, err := FeeShares(sdkmath.NewIntFromUint64(10_000_000_000_000_000_000), 1000, before)
		require.NoError(t, err)
		assert.Equal(t, "917431192660550458", shares.Dec())

		// minted shares are worth the fee after the rebase, modulo rounding
		after := totals("110000000000000000000", "100917431192660550458")
		worth, err := SharesToEther(shares, after)
		require.NoError(t, err)
		assert.Equal(t, "999999999999999999", worth.Dec())
	})
	t.Run("negative rewards mint nothing", func(t *testing.T) {
		shares, err := FeeShares(sdkmath.NewInt(-5), 1000, before)
		require.NoError(t, err)
		assert.True(t, shares.IsZero())
	})
	t.Run("zero fee", func(t *testing.T) {
		shares, err := FeeShares(sdkmath.NewInt(5), 0, before)
		require.NoError(t, err)
		assert.True(t, shares.IsZero())
	})
	t.Run("fee above calculation unit", func(t *testing.T) {
		_, err := FeeShares(sdkmath.NewInt(1000), 65535, totals("0", "100"))
		assert.ErrorIs(t, err, ErrNonPositiveDenominator)
	})
}

func TestBasisPoints(t *testing.T) {
	amount := u("1000")
	for bps, expected := range map[uint16]string{500: "50", 5000: "500", 0: "0"} {
		v := BasisPoints(&amount, bps)
		assert.Equal(t, expected, v.Dec())
	}
}

func TestSignedBridge(t *testing.T) {
	v := u("123456789012345678901234567890")
	s := Signed(v)
	assert.Equal(t, "123456789012345678901234567890", s.String())

	back, err := Unsigned(s)
	require.NoError(t, err)
	assert.True(t, back.Eq(&v))

	_, err = Unsigned(sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, ErrNegative)
}

func TestSaturatingSub(t *testing.T) {
	z, ok := SaturatingSub(u("5"), u("3"))
	assert.True(t, ok)
	assert.Equal(t, "2", z.Dec())

	z, ok = SaturatingSub(u("3"), u("5"))
	assert.False(t, ok)
	assert.True(t, z.IsZero())
}
