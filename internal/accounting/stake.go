package accounting

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/ledger"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

func (e *Engine) handleSubmitted(ctx context.Context, tx *state.Tx, ev types.Submitted) error {
	before := tx.LoadTotals()
	shares, err := ledger.MintShares(ev.Amount, before)
	if err != nil {
		return err
	}

	balance, err := tx.LoadShareBalance(ctx, ev.Sender)
	if err != nil {
		return err
	}
	balanceAfter := ledger.Add(balance, shares)
	tx.SaveShareBalance(ev.Sender, balanceAfter)

	after := types.Totals{
		TotalPooledEther: ledger.Add(before.TotalPooledEther, ev.Amount),
		TotalShares:      ledger.Add(before.TotalShares, shares),
	}
	tx.SaveTotals(after)

	rec := &types.SubmissionRecord{
		Header:       ev.Header,
		Sender:       ev.Sender,
		Amount:       ev.Amount,
		Referral:     ev.Referral,
		Shares:       shares,
		SharesBefore: balance,
		SharesAfter:  balanceAfter,
		TotalsBefore: before,
		TotalsAfter:  after,
	}
	tx.AddRecord(rec)
	tx.StageSubmission(rec)
	return nil
}

func (e *Engine) handleWithdrawal(ctx context.Context, tx *state.Tx, ev types.Withdrawal) error {
	totals := tx.LoadTotals()

	var shares uint256.Int
	if totals.IsZero() {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindMissingRequiredPriorRecord,
			"withdrawal before any pooled ether, treating totals as zero")
	} else {
		var err error
		shares, err = ledger.EtherToShares(ev.TokenAmount, totals)
		if err != nil {
			return err
		}
	}

	pooled, ok := ledger.SaturatingSub(totals.TotalPooledEther, ev.TokenAmount)
	if !ok {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindNegativeBalance,
			fmt.Sprintf("withdrawal of %s exceeds pooled ether %s", ev.TokenAmount.Dec(), totals.TotalPooledEther.Dec()))
	}
	change, err := e.debit(ctx, tx, ev.Header, ev.Type(), ev.Sender, shares)
	if err != nil {
		return err
	}
	totalShares, ok := ledger.SaturatingSub(totals.TotalShares, change.debited())
	if !ok {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindNegativeBalance,
			fmt.Sprintf("withdrawal of %s shares exceeds total shares %s", shares.Dec(), totals.TotalShares.Dec()))
	}

	after := types.Totals{TotalPooledEther: pooled, TotalShares: totalShares}
	tx.SaveTotals(after)

	tx.AddRecord(&types.WithdrawalRecord{
		Header:         ev.Header,
		Sender:         ev.Sender,
		TokenAmount:    ev.TokenAmount,
		SentFromBuffer: ev.SentFromBuffer,
		PubkeyHash:     ev.PubkeyHash,
		EtherAmount:    ev.EtherAmount,
		Shares:         shares,
		TotalsAfter:    after,
	})
	return nil
}

func (e *Engine) handleSharesBurnt(ctx context.Context, tx *state.Tx, ev types.SharesBurnt) error {
	change, err := e.debit(ctx, tx, ev.Header, ev.Type(), ev.Account, ev.SharesAmount)
	if err != nil {
		return err
	}

	totals := tx.LoadTotals()
	totalShares, ok := ledger.SaturatingSub(totals.TotalShares, change.debited())
	if !ok {
		e.anomaly(ctx, tx, ev.Header, ev.Type(), types.KindNegativeBalance,
			fmt.Sprintf("burn of %s shares exceeds total shares %s", ev.SharesAmount.Dec(), totals.TotalShares.Dec()))
	}
	totals.TotalShares = totalShares
	tx.SaveTotals(totals)

	tx.AddRecord(&types.SharesBurnRecord{
		Header:                ev.Header,
		Account:               ev.Account,
		PreRebaseTokenAmount:  ev.PreRebaseTokenAmount,
		PostRebaseTokenAmount: ev.PostRebaseTokenAmount,
		SharesAmount:          ev.SharesAmount,
	})
	return nil
}

type balanceChange struct {
	before uint256.Int
	after  uint256.Int
}

// debited is what actually left the balance, which is less than requested
// when the debit was clamped.
func (c balanceChange) debited() uint256.Int {
	d, _ := ledger.SaturatingSub(c.before, c.after)
	return d
}

// debit removes shares from addr, clamping at zero.
func (e *Engine) debit(
	ctx context.Context,
	tx *state.Tx,
	h types.Header,
	eventType types.EventType,
	addr common.Address,
	shares uint256.Int,
) (balanceChange, error) {
	before, err := tx.LoadShareBalance(ctx, addr)
	if err != nil {
		return balanceChange{}, err
	}
	after, ok := ledger.SaturatingSub(before, shares)
	if !ok {
		e.anomaly(ctx, tx, h, eventType, types.KindNegativeBalance,
			fmt.Sprintf("debit of %s shares exceeds balance %s of %s", shares.Dec(), before.Dec(), addr.Hex()))
	}
	tx.SaveShareBalance(addr, after)
	return balanceChange{before: before, after: after}, nil
}

// credit adds shares to addr.
func (e *Engine) credit(ctx context.Context, tx *state.Tx, addr common.Address, shares uint256.Int) (balanceChange, error) {
	before, err := tx.LoadShareBalance(ctx, addr)
	if err != nil {
		return balanceChange{}, err
	}
	after := ledger.Add(before, shares)
	tx.SaveShareBalance(addr, after)
	return balanceChange{before: before, after: after}, nil
}
