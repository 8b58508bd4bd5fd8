package accounting

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/ledger"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// classification is the outcome of matching a transfer against the open
// reward event of its transaction.
type classification struct {
	class  types.TransferClassification
	shares uint256.Int
	// credit is false for stake mints, whose shares were credited by Submitted
	credit bool
	// rewardMint is set for every mint of a transaction with a reward event
	rewardMint bool
}

func (e *Engine) handleTransfer(ctx context.Context, tx *state.Tx, ev types.Transfer) error {
	// pre-transfer totals, fee mints do not move them either
	totals := tx.LoadTotals()

	c, err := e.classify(ctx, tx, ev, totals)
	if err != nil {
		return err
	}

	rec := &types.TransferRecord{
		Header:                ev.Header,
		From:                  ev.From,
		To:                    ev.To,
		Value:                 ev.Value,
		Shares:                c.shares,
		Classification:        c.class,
		Totals:                totals,
		MintWithoutSubmission: c.rewardMint,
	}
	if c.class == types.ClassStakeMint {
		if sub := e.matchingSubmission(ev); sub != nil {
			rec.Shares = sub.Shares
			rec.SharesBeforeIncrease = sub.SharesBefore
			rec.SharesAfterIncrease = sub.SharesAfter
			rec.BalanceAfterIncrease = etherOf(sub.SharesAfter, totals)
		} else {
			e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindMissingRequiredPriorRecord,
				fmt.Sprintf("mint of %s to %s has no matching submission, shares not credited", ev.Value.Dec(), ev.To.Hex()))
		}
	}

	credited := c.shares
	if ev.From != types.ZeroAddress {
		change, err := e.debit(ctx, tx, ev.Header, ev.Type(), ev.From, c.shares)
		if err != nil {
			return err
		}
		// a clamped debit moves only what the sender had
		credited = change.debited()
		rec.SharesBeforeDecrease = change.before
		rec.SharesAfterDecrease = change.after
		rec.BalanceAfterDecrease = etherOf(change.after, totals)
		rec.SenderDrained = change.after.IsZero() && !change.before.IsZero()
	}

	if c.credit {
		change, err := e.credit(ctx, tx, ev.To, credited)
		if err != nil {
			return err
		}
		rec.SharesBeforeIncrease = change.before
		rec.SharesAfterIncrease = change.after
		rec.BalanceAfterIncrease = etherOf(change.after, totals)
	}

	tx.AddRecord(rec)
	tx.StageSubmission(nil)
	return nil
}

// classify matches, in order: insurance fee, treasury fee or dust, node
// operator fee, stake mint and finally a plain transfer.
func (e *Engine) classify(ctx context.Context, tx *state.Tx, ev types.Transfer, totals types.Totals) (classification, error) {
	if ev.From != types.ZeroAddress {
		return e.plainTransfer(ctx, tx, ev, totals)
	}

	reward, err := tx.LoadRewardEvent(ctx, ev.TxHash)
	if err != nil {
		return classification{}, err
	}
	if reward == nil {
		return classification{class: types.ClassStakeMint, shares: etherToSharesOrZero(ev.Value, totals)}, nil
	}

	settings := tx.LoadSettings()
	c := classification{credit: true, rewardMint: true}
	switch {
	case ev.To == settings.InsuranceFund && reward.State.In(types.QualifiedStatesForInsuranceFee()):
		c.class = types.ClassInsuranceFee
		c.shares = reward.SharesToInsuranceFund
		reward.InsuranceFee = ev.Value
		reward.State = types.RewardInsuranceRecorded

	case ev.To == settings.Treasury && reward.State.In(types.QualifiedStatesForTreasuryFee()):
		if tx.LoadFeeConfig().TreasuryFeeBasisPoints == 0 {
			c.class = types.ClassTreasuryDust
			c.shares = reward.DustSharesToTreasury
			reward.Dust = ev.Value
		} else {
			c.class = types.ClassTreasuryFee
			c.shares = reward.SharesToTreasury
			reward.TreasuryFee = ev.Value
		}
		reward.State = types.RewardTreasuryRecorded

	default:
		shares, ok := reward.OperatorShareOf(ev.To)
		if !ok || !reward.State.In(types.QualifiedStatesForOperatorFee()) {
			e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindUnclassifiableTransfer,
				fmt.Sprintf("mint to %s in reward transaction matches no fee recipient", ev.To.Hex()))
			c, err := e.plainTransfer(ctx, tx, ev, totals)
			c.rewardMint = true
			return c, err
		}
		c.class = types.ClassOperatorFee
		c.shares = shares
		reward.OperatorsFee = ledger.Add(reward.OperatorsFee, ev.Value)
		tx.AddRecord(&types.NodeOperatorFeeRecord{
			Header:   ev.Header,
			Operator: ev.To,
			Fee:      ev.Value,
			Shares:   shares,
		})
	}

	reward.TotalFee = ledger.Add(reward.TotalFee, ev.Value)
	reward.TotalRewards = reward.TotalRewardsWithFees.Sub(ledger.Signed(reward.TotalFee))
	reward.AssignedShares = ledger.Add(reward.AssignedShares, c.shares)
	tx.SaveRewardEvent(reward)
	return c, nil
}

func (e *Engine) plainTransfer(ctx context.Context, tx *state.Tx, ev types.Transfer, totals types.Totals) (classification, error) {
	if totals.IsZero() && !ev.Value.IsZero() {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindMissingRequiredPriorRecord,
			"transfer before any pooled ether, moving no shares")
	}
	return classification{
		class:  types.ClassTransfer,
		shares: etherToSharesOrZero(ev.Value, totals),
		credit: true,
	}, nil
}

func (e *Engine) matchingSubmission(ev types.Transfer) *types.SubmissionRecord {
	sub := e.lastSubmission
	if sub == nil || sub.TxHash != ev.TxHash || sub.Sender != ev.To || !sub.Amount.Eq(&ev.Value) {
		return nil
	}
	return sub
}

func etherToSharesOrZero(amount uint256.Int, totals types.Totals) uint256.Int {
	if totals.IsZero() {
		return uint256.Int{}
	}
	shares, err := ledger.EtherToShares(amount, totals)
	if err != nil {
		return uint256.Int{}
	}
	return shares
}

func etherOf(shares uint256.Int, totals types.Totals) uint256.Int {
	if totals.TotalShares.IsZero() {
		return uint256.Int{}
	}
	v, err := ledger.SharesToEther(shares, totals)
	if err != nil {
		return uint256.Int{}
	}
	return v
}
