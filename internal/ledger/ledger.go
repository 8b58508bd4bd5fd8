// Package ledger implements the fixed-point share arithmetic of the pool.
// All divisions floor and intermediate products are computed in 512 bits.
package ledger

import (
	"errors"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("uint256 overflow")
	ErrNegative       = errors.New("negative value can not be represented as unsigned")
	// ErrNonPositiveDenominator is returned by FeeShares when the mint formula
	// has no meaningful solution.
	ErrNonPositiveDenominator = errors.New("fee shares denominator is not positive")
)

var calculationUnit = uint256.NewInt(types.CalculationUnit)

// ProportionalSplit returns floor(amount * numerator / denominator).
func ProportionalSplit(amount, numerator, denominator *uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if denominator.IsZero() {
		return z, ErrDivisionByZero
	}
	if _, overflow := z.MulDivOverflow(amount, numerator, denominator); overflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}

// BasisPoints returns floor(amount * bps / 10000).
func BasisPoints(amount *uint256.Int, bps uint16) uint256.Int {
	z, _ := ProportionalSplit(amount, uint256.NewInt(uint64(bps)), calculationUnit)
	return z
}

// MintShares converts a stake into shares at the current rate. An empty pool
// or a stake too small to buy a single share mints 1:1.
func MintShares(amount uint256.Int, totals types.Totals) (uint256.Int, error) {
	if totals.IsZero() {
		return amount, nil
	}
	shares, err := ProportionalSplit(&amount, &totals.TotalShares, &totals.TotalPooledEther)
	if err != nil {
		return uint256.Int{}, err
	}
	if shares.IsZero() {
		return amount, nil
	}
	return shares, nil
}

// SharesToEther returns the pooled ether backing shares.
func SharesToEther(shares uint256.Int, totals types.Totals) (uint256.Int, error) {
	return ProportionalSplit(&shares, &totals.TotalPooledEther, &totals.TotalShares)
}

// EtherToShares returns the shares worth amount, without any fallback.
func EtherToShares(amount uint256.Int, totals types.Totals) (uint256.Int, error) {
	return ProportionalSplit(&amount, &totals.TotalShares, &totals.TotalPooledEther)
}

// FeeShares returns the shares minted so that the protocol receives feeBps of
// rewards after the rebase:
//
//	rewards * fee * shares / ((pooled + rewards) * 10000 - fee * rewards)
//
// Non-positive rewards mint nothing.
func FeeShares(rewards sdkmath.Int, feeBps uint16, before types.Totals) (uint256.Int, error) {
	if !rewards.IsPositive() || feeBps == 0 {
		return uint256.Int{}, nil
	}
	r, err := Unsigned(rewards)
	if err != nil {
		return uint256.Int{}, err
	}

	var pooled, denominator, feeRewards uint256.Int
	if _, overflow := pooled.AddOverflow(&before.TotalPooledEther, &r); overflow {
		return uint256.Int{}, ErrOverflow
	}
	if _, overflow := denominator.MulOverflow(&pooled, calculationUnit); overflow {
		return uint256.Int{}, ErrOverflow
	}
	if _, overflow := feeRewards.MulOverflow(&r, uint256.NewInt(uint64(feeBps))); overflow {
		return uint256.Int{}, ErrOverflow
	}
	if !denominator.Gt(&feeRewards) {
		return uint256.Int{}, ErrNonPositiveDenominator
	}
	denominator.Sub(&denominator, &feeRewards)

	return ProportionalSplit(&feeRewards, &before.TotalShares, &denominator)
}

// SaturatingSub returns a-b, or zero and false when b > a.
func SaturatingSub(a, b uint256.Int) (uint256.Int, bool) {
	var z uint256.Int
	if b.Gt(&a) {
		return z, false
	}
	z.Sub(&a, &b)
	return z, true
}

func Add(a, b uint256.Int) uint256.Int {
	var z uint256.Int
	z.Add(&a, &b)
	return z
}

// Signed lifts an unsigned amount into the signed domain.
func Signed(v uint256.Int) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(v.ToBig())
}

// Unsigned converts a non-negative signed amount back.
func Unsigned(v sdkmath.Int) (uint256.Int, error) {
	if v.IsNegative() {
		return uint256.Int{}, ErrNegative
	}
	u, overflow := uint256.FromBig(v.BigInt())
	if overflow {
		return uint256.Int{}, ErrOverflow
	}
	return *u, nil
}
