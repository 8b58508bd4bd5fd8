package db

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) LoadProtocolSnapshot(ctx context.Context) (result *types.ProtocolSnapshot, err error) {
	//nolint:errcheck
	d.run("LoadProtocolSnapshot", func() error {
		result, err = d.db.LoadProtocolSnapshot(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadShareBalance(ctx context.Context, holder common.Address) (result uint256.Int, err error) {
	//nolint:errcheck
	d.run("LoadShareBalance", func() error {
		result, err = d.db.LoadShareBalance(ctx, holder)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadRewardEvent(ctx context.Context, txHash common.Hash) (result *types.RewardEvent, err error) {
	//nolint:errcheck
	d.run("LoadRewardEvent", func() error {
		result, err = d.db.LoadRewardEvent(ctx, txHash)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadOracleReport(ctx context.Context, id string) (result *types.OracleReport, err error) {
	//nolint:errcheck
	d.run("LoadOracleReport", func() error {
		result, err = d.db.LoadOracleReport(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) SumShareBalances(ctx context.Context) (result uint256.Int, err error) {
	//nolint:errcheck
	d.run("SumShareBalances", func() error {
		result, err = d.db.SumShareBalances(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadUsageSnapshot(ctx context.Context, period types.Period, id string) (result *types.UsageSnapshot, err error) {
	//nolint:errcheck
	d.run("LoadUsageSnapshot", func() error {
		result, err = d.db.LoadUsageSnapshot(ctx, period, id)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadProtocolUsage(ctx context.Context) (result *types.ProtocolUsage, err error) {
	//nolint:errcheck
	d.run("LoadProtocolUsage", func() error {
		result, err = d.db.LoadProtocolUsage(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadHolder(ctx context.Context, holder common.Address) (result *types.Holder, err error) {
	//nolint:errcheck
	d.run("LoadHolder", func() error {
		result, err = d.db.LoadHolder(ctx, holder)
		return err
	})
	return
}

func (d *DbWithMetrics) LoadHolderStats(ctx context.Context) (result *types.HolderStats, err error) {
	//nolint:errcheck
	d.run("LoadHolderStats", func() error {
		result, err = d.db.LoadHolderStats(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveChangeset(ctx context.Context, cs *types.Changeset) error {
	return d.run("SaveChangeset", func() error {
		return d.db.SaveChangeset(ctx, cs)
	})
}

func (d *DbWithMetrics) RecoverJournal(ctx context.Context) (result bool, err error) {
	//nolint:errcheck
	d.run("RecoverJournal", func() error {
		result, err = d.db.RecoverJournal(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLastProcessedBlock(ctx context.Context) (result uint64, err error) {
	//nolint:errcheck
	d.run("GetLastProcessedBlock", func() error {
		result, err = d.db.GetLastProcessedBlock(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateLastProcessedBlock(ctx context.Context, block uint64) error {
	return d.run("UpdateLastProcessedBlock", func() error {
		return d.db.UpdateLastProcessedBlock(ctx, block)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
