// Package usage derives hourly and daily activity snapshots, protocol TVL and
// holder statistics from applied events. It only reads accounting output.
package usage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/stakewatch/lido-ledger-indexer/internal/price"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	hourInSeconds = 3600
	dayInSeconds  = 86400

	snapshotCacheSize      = 64
	defaultHolderCacheSize = 100_000

	etherDecimals = 18
)

type Loader interface {
	LoadUsageSnapshot(ctx context.Context, period types.Period, id string) (*types.UsageSnapshot, error)
	LoadProtocolUsage(ctx context.Context) (*types.ProtocolUsage, error)
	LoadHolder(ctx context.Context, holder common.Address) (*types.Holder, error)
	LoadHolderStats(ctx context.Context) (*types.HolderStats, error)
}

// PriceOracle values an amount of whole tokens in USD at a block, zero when
// unknown.
type PriceOracle interface {
	GetUsdValue(ctx context.Context, token common.Address, amount decimal.Decimal, block uint64) decimal.Decimal
}

type Aggregator struct {
	mu     sync.Mutex
	loader Loader
	prices PriceOracle

	snapshots *lru.Cache[string, *types.UsageSnapshot]
	holders   *lru.Cache[common.Address, struct{}]
	protocol  *types.ProtocolUsage
	stats     *types.HolderStats
}

func NewAggregator(loader Loader, prices PriceOracle, holderCacheSize int) (*Aggregator, error) {
	if holderCacheSize <= 0 {
		holderCacheSize = defaultHolderCacheSize
	}
	snapshots, err := lru.New[string, *types.UsageSnapshot](snapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	holders, err := lru.New[common.Address, struct{}](holderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create holder cache: %w", err)
	}
	return &Aggregator{
		loader:    loader,
		prices:    prices,
		snapshots: snapshots,
		holders:   holders,
	}, nil
}

// HourID is "<day>-<hour>" where both are counted from the unix epoch.
func HourID(ts uint64) string {
	return strconv.FormatUint(ts/dayInSeconds, 10) + "-" + strconv.FormatUint(ts/hourInSeconds, 10)
}

func DayID(ts uint64) string {
	return strconv.FormatUint(ts/dayInSeconds, 10)
}

// activity is what a qualifying event contributes to the usage buckets.
type activity struct {
	actor common.Address
	value *uint256.Int
}

func activityOf(ev types.Event) (activity, bool) {
	switch ev := ev.(type) {
	case types.Submitted:
		return activity{actor: ev.Sender, value: &ev.Amount}, true
	case types.Transfer:
		if ev.Value.IsZero() {
			return activity{}, false
		}
		return activity{actor: ev.From, value: &ev.Value}, true
	case types.Withdrawal:
		return activity{actor: ev.Sender}, true
	case types.Approval:
		return activity{actor: ev.Owner}, true
	}
	return activity{}, false
}

// Apply computes the usage entities changed by ev. records are the accounting
// records derived from the same event. Nothing is cached until Commit.
func (a *Aggregator) Apply(ctx context.Context, ev types.Event, records []types.Record) (*types.UsageChanges, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	changes := &types.UsageChanges{}
	h := ev.EventHeader()

	if act, ok := activityOf(ev); ok {
		if err := a.applyActivity(ctx, changes, h, act); err != nil {
			return nil, err
		}
	}

	for _, r := range records {
		tr, ok := r.(*types.TransferRecord)
		if !ok || tr.Value.IsZero() {
			continue
		}
		if err := a.applyHolders(ctx, changes, h, tr); err != nil {
			return nil, err
		}
	}

	if changes.IsEmpty() {
		return nil, nil
	}
	return changes, nil
}

func (a *Aggregator) applyActivity(ctx context.Context, changes *types.UsageChanges, h types.Header, act activity) error {
	hourly, err := a.snapshot(ctx, types.PeriodHourly, HourID(h.BlockTime), (h.BlockTime/hourInSeconds)*hourInSeconds)
	if err != nil {
		return err
	}
	daily, err := a.snapshot(ctx, types.PeriodDaily, DayID(h.BlockTime), (h.BlockTime/dayInSeconds)*dayInSeconds)
	if err != nil {
		return err
	}
	protocol, err := a.protocolUsage(ctx)
	if err != nil {
		return err
	}

	usd := decimal.Zero
	if act.value != nil && !act.value.IsZero() {
		amount := decimal.NewFromBigInt(act.value.ToBig(), -etherDecimals)
		usd = a.prices.GetUsdValue(ctx, price.ETH, amount, h.BlockNumber)
	}

	for _, s := range []*types.UsageSnapshot{hourly, daily} {
		s.TxCount++
		if act.actor != (common.Address{}) && !s.HasUser(act.actor) {
			s.ActiveUsers = append(s.ActiveUsers, act.actor)
			s.ActiveUsersCount++
		}
		if !usd.IsZero() {
			s.TVLUSD = s.TVLUSD.Add(usd)
		}
		s.BlockNumber = h.BlockNumber
		s.BlockTime = h.BlockTime
	}

	protocol.TxCount++
	protocol.BlockNumber = h.BlockNumber
	if !usd.IsZero() {
		protocol.TVLUSD = protocol.TVLUSD.Add(usd)
	}

	changes.Snapshots = append(changes.Snapshots, hourly, daily)
	changes.Protocol = protocol
	return nil
}

func (a *Aggregator) applyHolders(ctx context.Context, changes *types.UsageChanges, h types.Header, tr *types.TransferRecord) error {
	stats := changes.HolderStats
	if stats == nil {
		loaded, err := a.holderStats(ctx)
		if err != nil {
			return err
		}
		stats = loaded
	}
	changed := false

	// receivers left without shares, like uncredited mints, are not holders
	if tr.To != (common.Address{}) && !tr.SharesAfterIncrease.IsZero() {
		known, err := a.knownHolder(ctx, tr.To)
		if err != nil {
			return err
		}
		for _, pending := range changes.Holders {
			if pending.Address == tr.To {
				known = true
			}
		}

		switch {
		case !known:
			stats.UniqueHolders++
			stats.UniqueAnytimeHolders++
			changes.Holders = append(changes.Holders, &types.Holder{Address: tr.To, FirstSeen: h.BlockNumber})
			changed = true
		case tr.SharesBeforeIncrease.IsZero() && !tr.SharesAfterIncrease.IsZero():
			stats.UniqueHolders++
			changed = true
		}
	}

	if tr.SenderDrained && stats.UniqueHolders > 0 {
		stats.UniqueHolders--
		changed = true
	}

	if changed {
		changes.HolderStats = stats
	}
	return nil
}

// snapshot returns a copy of the bucket, creating an empty one if needed.
func (a *Aggregator) snapshot(ctx context.Context, period types.Period, id string, start uint64) (*types.UsageSnapshot, error) {
	key := string(period) + "/" + id
	if s, ok := a.snapshots.Get(key); ok {
		return s.Clone(), nil
	}
	s, err := a.loader.LoadUsageSnapshot(ctx, period, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s usage snapshot %s: %w", period, id, err)
	}
	if s == nil {
		s = &types.UsageSnapshot{Period: period, ID: id, BucketStart: start, TVLUSD: decimal.Zero}
	}
	a.snapshots.Add(key, s)
	return s.Clone(), nil
}

func (a *Aggregator) protocolUsage(ctx context.Context) (*types.ProtocolUsage, error) {
	if a.protocol == nil {
		p, err := a.loader.LoadProtocolUsage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load protocol usage: %w", err)
		}
		if p == nil {
			p = &types.ProtocolUsage{TVLUSD: decimal.Zero}
		}
		a.protocol = p
	}
	p := *a.protocol
	return &p, nil
}

func (a *Aggregator) holderStats(ctx context.Context) (*types.HolderStats, error) {
	if a.stats == nil {
		s, err := a.loader.LoadHolderStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load holder stats: %w", err)
		}
		if s == nil {
			s = &types.HolderStats{}
		}
		a.stats = s
	}
	s := *a.stats
	return &s, nil
}

func (a *Aggregator) knownHolder(ctx context.Context, addr common.Address) (bool, error) {
	if _, ok := a.holders.Get(addr); ok {
		return true, nil
	}
	holder, err := a.loader.LoadHolder(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("failed to load holder %s: %w", addr.Hex(), err)
	}
	if holder == nil {
		return false, nil
	}
	a.holders.Add(addr, struct{}{})
	return true, nil
}

// Commit caches changes once they were persisted.
func (a *Aggregator) Commit(changes *types.UsageChanges) {
	if changes.IsEmpty() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range changes.Snapshots {
		a.snapshots.Add(string(s.Period)+"/"+s.ID, s.Clone())
	}
	if changes.Protocol != nil {
		p := *changes.Protocol
		a.protocol = &p
	}
	for _, h := range changes.Holders {
		a.holders.Add(h.Address, struct{}{})
	}
	if changes.HolderStats != nil {
		s := *changes.HolderStats
		a.stats = &s
	}
}

// Reset drops cached entities, forcing reloads from the store.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshots.Purge()
	a.holders.Purge()
	a.protocol = nil
	a.stats = nil
}
