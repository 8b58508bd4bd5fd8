package model

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	HourlyUsageCollection = "usage_hourly"
	DailyUsageCollection  = "usage_daily"
	HolderCollection      = "holders"
)

func UsageCollection(period types.Period) string {
	if period == types.PeriodDaily {
		return DailyUsageCollection
	}
	return HourlyUsageCollection
}

type UsageSnapshotDocument struct {
	ID               string   `bson:"_id"`
	BucketStart      uint64   `bson:"bucket_start"`
	TxCount          uint64   `bson:"tx_count"`
	ActiveUsersCount uint64   `bson:"active_users_count"`
	ActiveUsers      []string `bson:"active_users"`
	TVLUSD           string   `bson:"tvl_usd"`
	BlockNumber      uint64   `bson:"block_number"`
	BlockTime        uint64   `bson:"block_time"`
}

func FromUsageSnapshot(s *types.UsageSnapshot) *UsageSnapshotDocument {
	doc := &UsageSnapshotDocument{
		ID:               s.ID,
		BucketStart:      s.BucketStart,
		TxCount:          s.TxCount,
		ActiveUsersCount: s.ActiveUsersCount,
		ActiveUsers:      make([]string, 0, len(s.ActiveUsers)),
		TVLUSD:           s.TVLUSD.String(),
		BlockNumber:      s.BlockNumber,
		BlockTime:        s.BlockTime,
	}
	for _, u := range s.ActiveUsers {
		doc.ActiveUsers = append(doc.ActiveUsers, hexAddress(u))
	}
	return doc
}

func (d *UsageSnapshotDocument) ToUsageSnapshot(period types.Period) (*types.UsageSnapshot, error) {
	p := &amountParser{}
	s := &types.UsageSnapshot{
		Period:           period,
		ID:               d.ID,
		BucketStart:      d.BucketStart,
		TxCount:          d.TxCount,
		ActiveUsersCount: d.ActiveUsersCount,
		TVLUSD:           p.d(d.TVLUSD),
		BlockNumber:      d.BlockNumber,
		BlockTime:        d.BlockTime,
	}
	for _, u := range d.ActiveUsers {
		s.ActiveUsers = append(s.ActiveUsers, common.HexToAddress(u))
	}
	return s, p.err
}

type ProtocolUsageDocument struct {
	ID          string `bson:"_id"`
	TVLUSD      string `bson:"tvl_usd"`
	TxCount     uint64 `bson:"tx_count"`
	BlockNumber uint64 `bson:"block_number"`
}

func (d *ProtocolUsageDocument) ToProtocolUsage() (*types.ProtocolUsage, error) {
	tvl, err := parseDecimal(d.TVLUSD)
	if err != nil {
		return nil, err
	}
	return &types.ProtocolUsage{TVLUSD: tvl, TxCount: d.TxCount, BlockNumber: d.BlockNumber}, nil
}

type HolderDocument struct {
	ID        string `bson:"_id"` // address
	FirstSeen uint64 `bson:"first_seen"`
}

func (d *HolderDocument) ToHolder() *types.Holder {
	return &types.Holder{Address: common.HexToAddress(d.ID), FirstSeen: d.FirstSeen}
}

type HolderStatsDocument struct {
	ID                   string `bson:"_id"`
	UniqueHolders        uint64 `bson:"unique_holders"`
	UniqueAnytimeHolders uint64 `bson:"unique_anytime_holders"`
}

func (d *HolderStatsDocument) ToHolderStats() *types.HolderStats {
	return &types.HolderStats{UniqueHolders: d.UniqueHolders, UniqueAnytimeHolders: d.UniqueAnytimeHolders}
}
