package db

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// LoadProtocolSnapshot returns the persisted singletons, nil if nothing was applied yet.
	LoadProtocolSnapshot(ctx context.Context) (*types.ProtocolSnapshot, error)
	// LoadShareBalance returns zero for unknown holders.
	LoadShareBalance(ctx context.Context, holder common.Address) (uint256.Int, error)
	// LoadRewardEvent returns nil if the transaction has no reward event.
	LoadRewardEvent(ctx context.Context, txHash common.Hash) (*types.RewardEvent, error)
	// LoadOracleReport returns nil if no report has the id.
	LoadOracleReport(ctx context.Context, id string) (*types.OracleReport, error)
	// SumShareBalances adds up every stored share balance.
	SumShareBalances(ctx context.Context) (uint256.Int, error)

	LoadUsageSnapshot(ctx context.Context, period types.Period, id string) (*types.UsageSnapshot, error)
	LoadProtocolUsage(ctx context.Context) (*types.ProtocolUsage, error)
	LoadHolder(ctx context.Context, holder common.Address) (*types.Holder, error)
	LoadHolderStats(ctx context.Context) (*types.HolderStats, error)

	// SaveChangeset persists all writes of one applied event. A crash midway
	// is repaired by RecoverJournal.
	SaveChangeset(ctx context.Context, cs *types.Changeset) error
	// RecoverJournal re-applies an interrupted changeset, reporting whether
	// one was pending.
	RecoverJournal(ctx context.Context) (bool, error)

	GetLastProcessedBlock(ctx context.Context) (uint64, error)
	UpdateLastProcessedBlock(ctx context.Context, block uint64) error
}
