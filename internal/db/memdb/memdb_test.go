package memdb

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

func changeset(block uint64, holder common.Address, shares uint64) *types.Changeset {
	totals := types.Totals{TotalPooledEther: *uint256.NewInt(shares), TotalShares: *uint256.NewInt(shares)}
	return &types.Changeset{
		Position: types.Position{Block: block},
		LastTx:   testutil.RandomHash(),
		Totals:   &totals,
		Balances: map[common.Address]uint256.Int{holder: *uint256.NewInt(shares)},
	}
}

func TestStore(t *testing.T) {
	ctx := t.Context()
	holder := testutil.RandomAddress()

	t.Run("empty", func(t *testing.T) {
		s := New()
		snapshot, err := s.LoadProtocolSnapshot(ctx)
		require.NoError(t, err)
		assert.Nil(t, snapshot)

		balance, err := s.LoadShareBalance(ctx, holder)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("save and load", func(t *testing.T) {
		s := New()
		require.NoError(t, s.SaveChangeset(ctx, changeset(3, holder, 10)))

		snapshot, err := s.LoadProtocolSnapshot(ctx)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, uint64(3), snapshot.Cursor.Block)
		assert.Equal(t, uint64(10), snapshot.Totals.TotalShares.Uint64())

		sum, err := s.SumShareBalances(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), sum.Uint64())
		assert.Zero(t, s.Count(model.JournalCollection))
	})

	t.Run("interrupted changeset is recovered", func(t *testing.T) {
		s := New()
		s.FailWritesAfter = 1
		require.Error(t, s.SaveChangeset(ctx, changeset(4, holder, 20)))

		// totals landed, the balance and cursor did not
		snapshot, err := s.LoadProtocolSnapshot(ctx)
		require.NoError(t, err)
		assert.Nil(t, snapshot)

		recovered, err := s.RecoverJournal(ctx)
		require.NoError(t, err)
		assert.True(t, recovered)

		snapshot, err = s.LoadProtocolSnapshot(ctx)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, uint64(4), snapshot.Cursor.Block)

		balance, err := s.LoadShareBalance(ctx, holder)
		require.NoError(t, err)
		assert.Equal(t, uint64(20), balance.Uint64())

		recovered, err = s.RecoverJournal(ctx)
		require.NoError(t, err)
		assert.False(t, recovered)
	})
}
