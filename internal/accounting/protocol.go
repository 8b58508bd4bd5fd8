package accounting

import (
	"context"
	"fmt"

	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// Fee changes only affect rebases that happen afterwards.
func (e *Engine) handleFeeSet(tx *state.Tx, ev types.FeeSet) {
	fees := tx.LoadFeeConfig()
	fees.FeeBasisPoints = ev.FeeBasisPoints
	tx.SaveFeeConfig(fees)
	tx.AddRecord(&types.FeeChangeRecord{Header: ev.Header, Kind: ev.Type(), Fees: fees})
}

func (e *Engine) handleFeeDistributionSet(ctx context.Context, tx *state.Tx, ev types.FeeDistributionSet) {
	sum := uint32(ev.TreasuryFeeBasisPoints) + uint32(ev.InsuranceFeeBasisPoints) + uint32(ev.OperatorsFeeBasisPoints)
	if sum != types.CalculationUnit {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindInvalidFeeSplit,
			fmt.Sprintf("fee distribution sums to %d basis points", sum))
	}

	fees := tx.LoadFeeConfig()
	fees.TreasuryFeeBasisPoints = ev.TreasuryFeeBasisPoints
	fees.InsuranceFeeBasisPoints = ev.InsuranceFeeBasisPoints
	fees.OperatorsFeeBasisPoints = ev.OperatorsFeeBasisPoints
	tx.SaveFeeConfig(fees)
	tx.AddRecord(&types.FeeChangeRecord{Header: ev.Header, Kind: ev.Type(), Fees: fees})
}

func (e *Engine) handleProtocolContactsSet(tx *state.Tx, ev types.ProtocolContactsSet) {
	settings := types.Settings{
		Oracle:        ev.Oracle,
		Treasury:      ev.Treasury,
		InsuranceFund: ev.InsuranceFund,
	}
	tx.SaveSettings(settings)
	tx.AddRecord(&types.ContactsChangeRecord{Header: ev.Header, Settings: settings})
}

func (e *Engine) handleReconcileBlock(ctx context.Context, tx *state.Tx, ev types.ReconcileBlock) error {
	if _, ok := e.reconcileBlocks[ev.BlockNumber]; !ok {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindRejectedReconciliation,
			fmt.Sprintf("block %d is not allow-listed for reconciliation", ev.BlockNumber))
		return nil
	}
	return e.reconcile(ctx, tx, ev.Header, ev.Type())
}

// reconcile overwrites pooled ether with the value read from chain. Shares
// are left alone.
func (e *Engine) reconcile(ctx context.Context, tx *state.Tx, h types.Header, reason types.EventType) error {
	pooled, err := e.chain.GetTotalPooledEther(ctx, h.BlockNumber)
	if err != nil {
		return fmt.Errorf("failed to read total pooled ether at block %d: %w", h.BlockNumber, err)
	}

	totals := tx.LoadTotals()
	tx.AddRecord(&types.ReconciliationRecord{
		Header:         h,
		Reason:         reason,
		PooledEtherOld: totals.TotalPooledEther,
		PooledEtherNew: pooled,
	})
	totals.TotalPooledEther = pooled
	tx.SaveTotals(totals)
	return nil
}
