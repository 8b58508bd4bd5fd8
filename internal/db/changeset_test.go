//go:build integration

package db_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

func TestSaveChangeset(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	holder := testutil.RandomAddress()
	other := testutil.RandomAddress()
	h := types.Header{BlockNumber: 12, BlockTime: 1_700_000_000, TxHash: testutil.RandomHash(), TxIndex: 3, LogIndex: 7}
	totals := types.Totals{TotalPooledEther: testutil.Ether(10), TotalShares: testutil.Ether(9)}
	fees := types.FeeConfig{FeeBasisPoints: 1000, TreasuryFeeBasisPoints: 5000, InsuranceFeeBasisPoints: 500, OperatorsFeeBasisPoints: 4500}
	settings := types.Settings{Treasury: testutil.RandomAddress(), InsuranceFund: testutil.RandomAddress()}

	reward := types.NewRewardEvent(h, fees, totals)
	reward.BeaconRewards = sdkmath.NewInt(-42)
	reward.Shares2Mint = *uint256.NewInt(99)
	reward.OperatorShares = []types.OperatorShare{{Address: other, Shares: *uint256.NewInt(11)}}

	cs := &types.Changeset{
		Position: h.Position(),
		LastTx:   h.TxHash,
		Totals:   &totals,
		Fees:     &fees,
		Settings: &settings,
		Balances: map[common.Address]uint256.Int{
			holder: testutil.Ether(4),
			other:  testutil.Ether(5),
		},
		Rewards: []*types.RewardEvent{reward},
		OracleReports: []*types.OracleReport{{
			ID:            "000000000001",
			EpochID:       5,
			BeaconBalance: testutil.Ether(64),
			Block:         h.BlockNumber,
			TxHash:        h.TxHash,
		}},
		Records: []types.Record{
			&types.TransferRecord{Header: h, From: holder, To: other, Value: *uint256.NewInt(1), Classification: types.ClassTransfer},
			&types.AnomalyRecord{Header: h, Kind: types.KindNegativeBalance, Event: types.EventTransfer, Message: "clamped"},
		},
		Usage: &types.UsageChanges{
			Snapshots: []*types.UsageSnapshot{{
				Period:           types.PeriodDaily,
				ID:               "19675",
				TxCount:          1,
				ActiveUsersCount: 1,
				ActiveUsers:      []common.Address{holder},
				TVLUSD:           decimal.RequireFromString("1234.5"),
			}},
			HolderStats: &types.HolderStats{UniqueHolders: 2, UniqueAnytimeHolders: 2},
		},
	}

	require.NoError(t, testDB.SaveChangeset(ctx, cs))

	t.Run("snapshot", func(t *testing.T) {
		snapshot, err := testDB.LoadProtocolSnapshot(ctx)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, h.Position(), snapshot.Cursor)
		assert.Equal(t, h.TxHash, snapshot.LastTx)
		assert.True(t, snapshot.Totals.TotalPooledEther.Eq(&totals.TotalPooledEther))
		assert.Equal(t, fees, snapshot.Fees)
		require.NotNil(t, snapshot.Settings)
		assert.Equal(t, settings, *snapshot.Settings)
	})

	t.Run("balances", func(t *testing.T) {
		v, err := testDB.LoadShareBalance(ctx, holder)
		require.NoError(t, err)
		expected := testutil.Ether(4)
		assert.True(t, v.Eq(&expected))

		missing, err := testDB.LoadShareBalance(ctx, testutil.RandomAddress())
		require.NoError(t, err)
		assert.True(t, missing.IsZero())

		sum, err := testDB.SumShareBalances(ctx)
		require.NoError(t, err)
		expectedSum := testutil.Ether(9)
		assert.True(t, sum.Eq(&expectedSum))
	})

	t.Run("reward event", func(t *testing.T) {
		r, err := testDB.LoadRewardEvent(ctx, h.TxHash)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "-42", r.BeaconRewards.String())
		assert.Equal(t, uint64(99), r.Shares2Mint.Uint64())
		shares, ok := r.OperatorShareOf(other)
		assert.True(t, ok)
		assert.Equal(t, uint64(11), shares.Uint64())

		none, err := testDB.LoadRewardEvent(ctx, testutil.RandomHash())
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("oracle report", func(t *testing.T) {
		r, err := testDB.LoadOracleReport(ctx, "000000000001")
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, uint64(5), r.EpochID)
	})

	t.Run("usage", func(t *testing.T) {
		s, err := testDB.LoadUsageSnapshot(ctx, types.PeriodDaily, "19675")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.True(t, s.HasUser(holder))
		assert.Equal(t, "1234.5", s.TVLUSD.String())

		stats, err := testDB.LoadHolderStats(ctx)
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, uint64(2), stats.UniqueHolders)
	})

	t.Run("records", func(t *testing.T) {
		count, err := mongoDB.Collection(model.TransferCollection).CountDocuments(ctx, bson.M{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = mongoDB.Collection(model.AnomalyCollection).CountDocuments(ctx, bson.M{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("journal is dropped", func(t *testing.T) {
		recovered, err := testDB.RecoverJournal(ctx)
		require.NoError(t, err)
		assert.False(t, recovered)
	})

	t.Run("saving twice is harmless", func(t *testing.T) {
		require.NoError(t, testDB.SaveChangeset(ctx, cs))
		count, err := mongoDB.Collection(model.TransferCollection).CountDocuments(ctx, bson.M{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestRecoverJournal(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	holder := testutil.RandomAddress()
	totals := types.Totals{TotalPooledEther: *uint256.NewInt(10), TotalShares: *uint256.NewInt(10)}
	cs := &types.Changeset{
		Position: types.Position{Block: 5},
		Totals:   &totals,
		Balances: map[common.Address]uint256.Int{holder: *uint256.NewInt(10)},
	}
	writes, err := model.ChangesetWrites(cs)
	require.NoError(t, err)

	// a crash right after the journal was written
	journal := &model.JournalDocument{ID: model.PendingJournalID, Block: 5, Writes: writes}
	_, err = mongoDB.Collection(model.JournalCollection).ReplaceOne(
		ctx, bson.M{"_id": model.PendingJournalID}, journal, options.Replace().SetUpsert(true),
	)
	require.NoError(t, err)

	snapshot, err := testDB.LoadProtocolSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	recovered, err := testDB.RecoverJournal(ctx)
	require.NoError(t, err)
	assert.True(t, recovered)

	snapshot, err = testDB.LoadProtocolSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, uint64(5), snapshot.Cursor.Block)

	balance, err := testDB.LoadShareBalance(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance.Uint64())
}
