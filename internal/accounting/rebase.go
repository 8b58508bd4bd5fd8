package accounting

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/lido-ledger-indexer/internal/ledger"
	"github.com/stakewatch/lido-ledger-indexer/internal/oraclerun"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

var depositSize = ledger.Signed(*types.DepositSize)

func (e *Engine) handleOracleCompleted(ctx context.Context, tx *state.Tx, ev types.OracleCompleted) error {
	nextID, err := e.tracker.NextID(ctx, tx, ev.BlockTime)
	if err != nil {
		return fmt.Errorf("failed to find previous oracle report: %w", err)
	}

	var prev *types.OracleReport
	if lastID, ok := oraclerun.PreviousID(nextID); ok {
		prev, err = tx.LoadOracleReport(ctx, lastID)
		if err != nil {
			return err
		}
	}

	rewards := beaconRewards(prev, ev)

	reward, err := e.openRewardEvent(ctx, tx, ev.Header)
	if err != nil {
		return err
	}
	if reward.State.In(types.QualifiedStatesForRecompute()) {
		reward.BeaconRewards = rewards
		if err := e.rebase(ctx, tx, ev.Header, reward); err != nil {
			return err
		}
	} else {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindLateRewardUpdate,
			fmt.Sprintf("oracle report after fees were paid in state %s, rewards unchanged", reward.State))
	}

	totals := tx.LoadTotals()
	tx.SaveOracleReport(&types.OracleReport{
		ID:               nextID,
		EpochID:          ev.EpochID,
		BeaconBalance:    ev.BeaconBalance,
		BeaconValidators: ev.BeaconValidators,
		Block:            ev.BlockNumber,
		BlockTime:        ev.BlockTime,
		TxHash:           ev.TxHash,
		LogIndex:         ev.LogIndex,
		PooledEtherAfter: totals.TotalPooledEther,
		SharesAfter:      totals.TotalShares,
	})
	return nil
}

// beaconRewards is newBalance - (appearedValidators * 32 ether + prevBalance).
// Slashing makes it negative.
func beaconRewards(prev *types.OracleReport, ev types.OracleCompleted) sdkmath.Int {
	var prevValidators uint64
	prevBalance := sdkmath.ZeroInt()
	if prev != nil {
		prevValidators = prev.BeaconValidators
		prevBalance = ledger.Signed(prev.BeaconBalance)
	}

	appeared := sdkmath.NewIntFromUint64(ev.BeaconValidators).Sub(sdkmath.NewIntFromUint64(prevValidators))
	rewardBase := appeared.Mul(depositSize).Add(prevBalance)
	return ledger.Signed(ev.BeaconBalance).Sub(rewardBase)
}

func (e *Engine) handleELRewardsReceived(ctx context.Context, tx *state.Tx, ev types.ELRewardsReceived) error {
	reward, err := e.openRewardEvent(ctx, tx, ev.Header)
	if err != nil {
		return err
	}
	if !reward.State.In(types.QualifiedStatesForRecompute()) {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindLateRewardUpdate,
			fmt.Sprintf("execution layer rewards after fees were paid in state %s, rewards unchanged", reward.State))
		return nil
	}

	reward.ELRewards = reward.ELRewards.Add(ledger.Signed(ev.Amount))
	return e.rebase(ctx, tx, ev.Header, reward)
}

// openRewardEvent returns the reward event of the transaction, creating it
// with the current fees and totals when this is the first rebase event.
func (e *Engine) openRewardEvent(ctx context.Context, tx *state.Tx, h types.Header) (*types.RewardEvent, error) {
	reward, err := tx.LoadRewardEvent(ctx, h.TxHash)
	if err != nil {
		return nil, err
	}
	if reward != nil {
		return reward, nil
	}
	return types.NewRewardEvent(h, tx.LoadFeeConfig(), tx.LoadTotals()), nil
}

// rebase recomputes the whole fee split of reward from its before snapshot,
// so execution and beacon rewards of one transaction converge regardless of
// their order.
func (e *Engine) rebase(ctx context.Context, tx *state.Tx, h types.Header, reward *types.RewardEvent) error {
	before := reward.TotalsBefore
	fees := reward.Fees

	reward.TotalRewardsWithFees = reward.BeaconRewards.Add(reward.ELRewards)
	reward.TotalRewards = reward.TotalRewardsWithFees.Sub(ledger.Signed(reward.TotalFee))
	if reward.TotalRewardsWithFees.IsNegative() {
		e.anomaly(ctx, tx, h, types.EventOracleCompleted, types.KindNonPositiveRewards,
			fmt.Sprintf("negative rewards %s, no fee is minted", reward.TotalRewardsWithFees))
	}

	shares2mint, err := ledger.FeeShares(reward.TotalRewardsWithFees, fees.FeeBasisPoints, before)
	switch {
	case errors.Is(err, ledger.ErrNonPositiveDenominator):
		e.anomaly(ctx, tx, h, types.EventOracleCompleted, types.KindInvalidFeeSplit,
			fmt.Sprintf("fee of %d basis points leaves no shares to mint", fees.FeeBasisPoints))
		shares2mint = uint256.Int{}
	case err != nil:
		return err
	}

	pooled := ledger.Signed(before.TotalPooledEther).Add(reward.TotalRewardsWithFees)
	if pooled.IsNegative() {
		e.anomaly(ctx, tx, h, types.EventOracleCompleted, types.KindNegativeBalance,
			fmt.Sprintf("rewards %s exceed pooled ether, clamping to zero", reward.TotalRewardsWithFees))
		pooled = sdkmath.ZeroInt()
	}
	pooledEther, err := ledger.Unsigned(pooled)
	if err != nil {
		return err
	}

	after := types.Totals{
		TotalPooledEther: pooledEther,
		TotalShares:      ledger.Add(before.TotalShares, shares2mint),
	}
	tx.SaveTotals(after)
	reward.TotalsAfter = after
	reward.Shares2Mint = shares2mint

	reward.SharesToInsuranceFund = ledger.BasisPoints(&shares2mint, fees.InsuranceFeeBasisPoints)
	reward.SharesToOperators = ledger.BasisPoints(&shares2mint, fees.OperatorsFeeBasisPoints)
	reward.OperatorShares = nil
	reward.SharesToOperatorsActual = uint256.Int{}
	if !reward.SharesToOperators.IsZero() {
		distribution, err := e.registry.GetRewardsDistribution(ctx, h.BlockNumber, reward.SharesToOperators)
		if err != nil {
			return fmt.Errorf("failed to get node operator rewards distribution: %w", err)
		}
		reward.OperatorShares = distribution
		for _, d := range distribution {
			reward.SharesToOperatorsActual = ledger.Add(reward.SharesToOperatorsActual, d.Shares)
		}
	}

	distributed := ledger.Add(reward.SharesToInsuranceFund, reward.SharesToOperatorsActual)
	remainder, ok := ledger.SaturatingSub(shares2mint, distributed)
	if !ok {
		e.anomaly(ctx, tx, h, types.EventOracleCompleted, types.KindOperatorOverDistribution,
			fmt.Sprintf("operators received %s shares out of %s requested", reward.SharesToOperatorsActual.Dec(), reward.SharesToOperators.Dec()))
	}
	if fees.TreasuryFeeBasisPoints != 0 {
		reward.SharesToTreasury = remainder
		reward.DustSharesToTreasury = uint256.Int{}
	} else {
		reward.SharesToTreasury = uint256.Int{}
		reward.DustSharesToTreasury = remainder
	}

	log.Ctx(ctx).Debug().
		Str("tx", h.TxHash.Hex()).
		Stringer("rewards", reward.TotalRewardsWithFees).
		Str("shares_minted", shares2mint.Dec()).
		Msg("rebase applied")

	tx.SaveRewardEvent(reward)
	return nil
}
