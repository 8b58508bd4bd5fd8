package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// DumpStateCmd prints the persisted protocol singletons.
func DumpStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Print the persisted protocol state and usage totals",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpState,
	}

	return cmd
}

func dumpState(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	state, err := loadDumpedState(ctx, dbClient)
	if err != nil {
		return err
	}
	writeState(cmd.OutOrStdout(), state)
	return nil
}

type dumpedState struct {
	LastProcessedBlock uint64
	Protocol           *types.ProtocolSnapshot
	Usage              *types.ProtocolUsage
	Holders            *types.HolderStats
}

func loadDumpedState(ctx context.Context, store db.DbInterface) (*dumpedState, error) {
	lastProcessed, err := store.GetLastProcessedBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last processed block: %w", err)
	}
	protocol, err := store.LoadProtocolSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol snapshot: %w", err)
	}
	protocolUsage, err := store.LoadProtocolUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol usage: %w", err)
	}
	holders, err := store.LoadHolderStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holder stats: %w", err)
	}

	return &dumpedState{
		LastProcessedBlock: lastProcessed,
		Protocol:           protocol,
		Usage:              protocolUsage,
		Holders:            holders,
	}, nil
}

func writeState(w io.Writer, s *dumpedState) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	cfg.Fdump(w, s)
}
