package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

var errLedgerMismatch = errors.New("share balances do not add up to total shares")

// VerifyLedgerCmd recomputes the sum of stored share balances and compares it
// with the persisted totals:
// ./lido-ledger-indexer verify-ledger --config config.yml
func VerifyLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-ledger",
		Short: "Check that stored share balances add up to total shares",
		Args:  cobra.ExactArgs(0),
		RunE:  verifyLedger,
	}

	return cmd
}

func verifyLedger(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	report, err := VerifyLedger(ctx, dbClient)
	if err != nil {
		return err
	}

	log.Info().
		Stringer("cursor", report.Cursor).
		Str("total_shares", report.TotalShares.Dec()).
		Str("balances", report.Balances.Dec()).
		Str("unassigned", report.Unassigned.Dec()).
		Msg("Ledger verified")
	return nil
}

type LedgerReport struct {
	Cursor      types.Position
	TotalShares uint256.Int
	Balances    uint256.Int
	// Unassigned are the fee shares of a reward whose transaction is still open
	Unassigned uint256.Int
}

// VerifyLedger returns errLedgerMismatch when the balances plus the
// unassigned shares of an open reward differ from the total shares.
func VerifyLedger(ctx context.Context, store db.DbInterface) (*LedgerReport, error) {
	snapshot, err := store.LoadProtocolSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, errors.New("nothing was indexed yet")
	}

	balances, err := store.SumShareBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum share balances: %w", err)
	}

	report := &LedgerReport{
		Cursor:      snapshot.Cursor,
		TotalShares: snapshot.Totals.TotalShares,
		Balances:    balances,
	}

	reward, err := store.LoadRewardEvent(ctx, snapshot.LastTx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward event %s: %w", snapshot.LastTx.Hex(), err)
	}
	if reward != nil && reward.State != types.RewardFinalized {
		report.Unassigned = reward.UnassignedShares()
	}

	var accounted uint256.Int
	accounted.Add(&report.Balances, &report.Unassigned)
	if !accounted.Eq(&report.TotalShares) {
		return report, fmt.Errorf("%w: %s in balances, %s unassigned, %s total",
			errLedgerMismatch, report.Balances.Dec(), report.Unassigned.Dec(), report.TotalShares.Dec())
	}
	return report, nil
}
