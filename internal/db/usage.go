package db

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

func (db *Database) LoadUsageSnapshot(ctx context.Context, period types.Period, id string) (*types.UsageSnapshot, error) {
	var doc model.UsageSnapshotDocument
	found, err := db.findByID(ctx, model.UsageCollection(period), id, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToUsageSnapshot(period)
}

func (db *Database) LoadProtocolUsage(ctx context.Context) (*types.ProtocolUsage, error) {
	var doc model.ProtocolUsageDocument
	found, err := db.findByID(ctx, model.ProtocolStateCollection, model.ProtocolUsageID, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToProtocolUsage()
}

func (db *Database) LoadHolder(ctx context.Context, holder common.Address) (*types.Holder, error) {
	var doc model.HolderDocument
	found, err := db.findByID(ctx, model.HolderCollection, holder.Hex(), &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToHolder(), nil
}

func (db *Database) LoadHolderStats(ctx context.Context) (*types.HolderStats, error) {
	var doc model.HolderStatsDocument
	found, err := db.findByID(ctx, model.ProtocolStateCollection, model.HolderStatsID, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToHolderStats(), nil
}
