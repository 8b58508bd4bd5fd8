package usage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/memdb"
	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/price"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

// 2021-01-07 06:13:20 UTC
const testTime = 1_610_000_000

func ether(n uint64) uint256.Int {
	v := uint256.NewInt(n)
	return *v.Mul(v, uint256.NewInt(1e18))
}

func header(block uint64, ts uint64) types.Header {
	return types.Header{
		BlockNumber: block,
		BlockTime:   ts,
		TxHash:      testutil.RandomHash(),
	}
}

type fixture struct {
	t     *testing.T
	store *memdb.Store
	agg   *Aggregator
}

func newFixture(t *testing.T, ethUsd string) *fixture {
	store := memdb.New()
	return &fixture{t: t, store: store, agg: newAggregator(t, store, ethUsd)}
}

func newAggregator(t *testing.T, store *memdb.Store, ethUsd string) *Aggregator {
	prices := map[common.Address]decimal.Decimal{}
	if ethUsd != "" {
		prices[price.ETH] = decimal.RequireFromString(ethUsd)
	}
	agg, err := NewAggregator(store, price.NewAdapter(price.NewStaticSource(prices)), 0)
	require.NoError(t, err)
	return agg
}

// apply persists and commits the usage changes of ev.
func (f *fixture) apply(ev types.Event, records ...types.Record) *types.UsageChanges {
	f.t.Helper()
	ctx := f.t.Context()
	changes, err := f.agg.Apply(ctx, ev, records)
	require.NoError(f.t, err)
	if changes == nil {
		return nil
	}
	require.NoError(f.t, f.store.SaveChangeset(ctx, &types.Changeset{
		Position: ev.EventHeader().Position(),
		Usage:    changes,
	}))
	f.agg.Commit(changes)
	return changes
}

func (f *fixture) snapshot(period types.Period, id string) *types.UsageSnapshot {
	f.t.Helper()
	s, err := f.store.LoadUsageSnapshot(f.t.Context(), period, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, s, "missing %s snapshot %s", period, id)
	return s
}

func (f *fixture) holderStats() types.HolderStats {
	f.t.Helper()
	s, err := f.store.LoadHolderStats(f.t.Context())
	require.NoError(f.t, err)
	if s == nil {
		return types.HolderStats{}
	}
	return *s
}

func TestBucketIDs(t *testing.T) {
	assert.Equal(t, "18634-447222", HourID(testTime))
	assert.Equal(t, "18634", DayID(testTime))

	// last second of the day stays in the same day bucket
	assert.Equal(t, "18634", DayID(18635*86400-1))
	assert.Equal(t, "18635-447240", HourID(18635*86400))
}

func TestActivity(t *testing.T) {
	t.Run("submission is counted with its usd value", func(t *testing.T) {
		f := newFixture(t, "1000")
		sender := testutil.RandomAddress()

		f.apply(types.Submitted{Header: header(1, testTime), Sender: sender, Amount: ether(2)})

		hourly := f.snapshot(types.PeriodHourly, HourID(testTime))
		assert.EqualValues(t, 1, hourly.TxCount)
		assert.EqualValues(t, 1, hourly.ActiveUsersCount)
		assert.Equal(t, []common.Address{sender}, hourly.ActiveUsers)
		assert.True(t, decimal.NewFromInt(2000).Equal(hourly.TVLUSD), hourly.TVLUSD.String())
		assert.EqualValues(t, 447222*3600, hourly.BucketStart)

		daily := f.snapshot(types.PeriodDaily, DayID(testTime))
		assert.EqualValues(t, 1, daily.TxCount)
		assert.True(t, decimal.NewFromInt(2000).Equal(daily.TVLUSD))
		assert.EqualValues(t, 18634*86400, daily.BucketStart)

		protocol, err := f.store.LoadProtocolUsage(t.Context())
		require.NoError(t, err)
		require.NotNil(t, protocol)
		assert.True(t, decimal.NewFromInt(2000).Equal(protocol.TVLUSD))
		assert.EqualValues(t, 1, protocol.TxCount)
	})

	t.Run("active users are counted once per bucket", func(t *testing.T) {
		f := newFixture(t, "1000")
		owner := testutil.RandomAddress()

		f.apply(types.Approval{Header: header(1, testTime), Owner: owner, Spender: testutil.RandomAddress()})
		f.apply(types.Approval{Header: header(2, testTime+10), Owner: owner, Spender: testutil.RandomAddress()})
		// next hour, same day
		f.apply(types.Withdrawal{Header: header(3, testTime+3600), Sender: owner})

		first := f.snapshot(types.PeriodHourly, HourID(testTime))
		assert.EqualValues(t, 2, first.TxCount)
		assert.EqualValues(t, 1, first.ActiveUsersCount)
		assert.True(t, first.TVLUSD.IsZero())

		second := f.snapshot(types.PeriodHourly, HourID(testTime+3600))
		assert.EqualValues(t, 1, second.TxCount)
		assert.EqualValues(t, 1, second.ActiveUsersCount)

		daily := f.snapshot(types.PeriodDaily, DayID(testTime))
		assert.EqualValues(t, 3, daily.TxCount)
		assert.EqualValues(t, 1, daily.ActiveUsersCount)
	})

	t.Run("zero address is not an active user", func(t *testing.T) {
		f := newFixture(t, "1000")

		f.apply(types.Transfer{Header: header(1, testTime), To: testutil.RandomAddress(), Value: ether(1)})

		hourly := f.snapshot(types.PeriodHourly, HourID(testTime))
		assert.EqualValues(t, 1, hourly.TxCount)
		assert.Zero(t, hourly.ActiveUsersCount)
		assert.Empty(t, hourly.ActiveUsers)
		assert.True(t, decimal.NewFromInt(1000).Equal(hourly.TVLUSD))
	})

	t.Run("zero value transfers and other events are ignored", func(t *testing.T) {
		f := newFixture(t, "1000")

		changes := f.apply(types.Transfer{Header: header(1, testTime), From: testutil.RandomAddress(), To: testutil.RandomAddress()})
		assert.Nil(t, changes)
		changes = f.apply(types.FeeSet{Header: header(2, testTime), FeeBasisPoints: 1000})
		assert.Nil(t, changes)
		assert.Zero(t, f.store.Count(model.HourlyUsageCollection))
	})

	t.Run("unknown price leaves tvl untouched", func(t *testing.T) {
		f := newFixture(t, "")

		f.apply(types.Submitted{Header: header(1, testTime), Sender: testutil.RandomAddress(), Amount: ether(5)})

		hourly := f.snapshot(types.PeriodHourly, HourID(testTime))
		assert.EqualValues(t, 1, hourly.TxCount)
		assert.True(t, hourly.TVLUSD.IsZero())
	})

	t.Run("uncommitted changes are not cached", func(t *testing.T) {
		f := newFixture(t, "1000")
		h := header(1, testTime)

		_, err := f.agg.Apply(t.Context(), types.Approval{Header: h, Owner: testutil.RandomAddress()}, nil)
		require.NoError(t, err)

		// the dropped approval does not count
		f.apply(types.Approval{Header: h, Owner: testutil.RandomAddress()})
		assert.EqualValues(t, 1, f.snapshot(types.PeriodHourly, HourID(testTime)).TxCount)
	})

	t.Run("restart continues from the store", func(t *testing.T) {
		f := newFixture(t, "1000")
		user := testutil.RandomAddress()
		f.apply(types.Submitted{Header: header(1, testTime), Sender: user, Amount: ether(1)})

		f.agg = newAggregator(t, f.store, "1000")
		f.apply(types.Submitted{Header: header(2, testTime+5), Sender: user, Amount: ether(1)})

		hourly := f.snapshot(types.PeriodHourly, HourID(testTime))
		assert.EqualValues(t, 2, hourly.TxCount)
		assert.EqualValues(t, 1, hourly.ActiveUsersCount)
		assert.True(t, decimal.NewFromInt(2000).Equal(hourly.TVLUSD))
	})
}

func transferRecord(h types.Header, from, to common.Address, before, after uint256.Int, drained bool) *types.TransferRecord {
	return &types.TransferRecord{
		Header:               h,
		From:                 from,
		To:                   to,
		Value:                ether(1),
		Shares:               ether(1),
		Classification:       types.ClassTransfer,
		SharesBeforeIncrease: before,
		SharesAfterIncrease:  after,
		SenderDrained:        drained,
	}
}

func TestHolderStats(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t, "1000")
	alice := testutil.RandomAddress()
	bob := testutil.RandomAddress()

	transfer := func(block uint64, from, to common.Address, before, after uint256.Int, drained bool) {
		h := header(block, testTime+block)
		ev := types.Transfer{Header: h, From: from, To: to, Value: ether(1)}
		f.apply(ev, transferRecord(h, from, to, before, after, drained))
	}

	// mint to alice
	transfer(1, common.Address{}, alice, uint256.Int{}, ether(1), false)
	assert.Equal(t, types.HolderStats{UniqueHolders: 1, UniqueAnytimeHolders: 1}, f.holderStats())

	holder, err := f.store.LoadHolder(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.EqualValues(t, 1, holder.FirstSeen)

	// alice drains into bob
	transfer(2, alice, bob, uint256.Int{}, ether(1), true)
	assert.Equal(t, types.HolderStats{UniqueHolders: 1, UniqueAnytimeHolders: 2}, f.holderStats())

	// alice comes back with an empty balance
	transfer(3, bob, alice, uint256.Int{}, ether(1), true)
	assert.Equal(t, types.HolderStats{UniqueHolders: 1, UniqueAnytimeHolders: 2}, f.holderStats())

	// bob returns
	transfer(4, alice, bob, uint256.Int{}, ether(1), false)
	assert.Equal(t, types.HolderStats{UniqueHolders: 2, UniqueAnytimeHolders: 2}, f.holderStats())
	// topping up an existing holder changes nothing
	transfer(5, alice, bob, ether(1), ether(2), false)
	assert.Equal(t, types.HolderStats{UniqueHolders: 2, UniqueAnytimeHolders: 2}, f.holderStats())

	assert.Equal(t, 2, f.store.Count(model.HolderCollection))
}

func TestHolderStatsSkipsReceiversWithoutShares(t *testing.T) {
	f := newFixture(t, "1000")
	h := header(1, testTime)
	rec := transferRecord(h, common.Address{}, testutil.RandomAddress(), uint256.Int{}, uint256.Int{}, false)
	rec.Classification = types.ClassStakeMint

	f.apply(types.Transfer{Header: h, To: rec.To, Value: ether(1)}, rec)

	assert.Equal(t, types.HolderStats{}, f.holderStats())
	assert.Zero(t, f.store.Count(model.HolderCollection))
}

func TestHolderStatsRestake(t *testing.T) {
	f := newFixture(t, "1000")
	alice := testutil.RandomAddress()
	bob := testutil.RandomAddress()

	apply := func(rec *types.TransferRecord) {
		f.apply(types.Transfer{Header: rec.Header, From: rec.From, To: rec.To, Value: rec.Value}, rec)
	}
	stakeMint := func(block uint64, to common.Address) *types.TransferRecord {
		rec := transferRecord(header(block, testTime+block), common.Address{}, to, uint256.Int{}, ether(1), false)
		rec.Classification = types.ClassStakeMint
		return rec
	}

	t.Run("stake then drain", func(t *testing.T) {
		apply(stakeMint(1, alice))
		assert.Equal(t, types.HolderStats{UniqueHolders: 1, UniqueAnytimeHolders: 1}, f.holderStats())

		apply(transferRecord(header(2, testTime+2), alice, bob, uint256.Int{}, ether(1), true))
		assert.Equal(t, types.HolderStats{UniqueHolders: 1, UniqueAnytimeHolders: 2}, f.holderStats())
	})

	t.Run("restaking counts the holder again", func(t *testing.T) {
		apply(stakeMint(3, alice))
		assert.Equal(t, types.HolderStats{UniqueHolders: 2, UniqueAnytimeHolders: 2}, f.holderStats())
		assert.Equal(t, 2, f.store.Count(model.HolderCollection))
	})
}
