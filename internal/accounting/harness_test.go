package accounting

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/memdb"
	"github.com/stakewatch/lido-ledger-indexer/internal/oraclerun"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
	"github.com/stakewatch/lido-ledger-indexer/tests/mocks"
)

const testBlockTime = 1_610_000_000

type harness struct {
	t        *testing.T
	store    *memdb.Store
	engine   *Engine
	registry *mocks.NodeOperatorRegistry
	chain    *mocks.ChainState
	settings types.Settings
	records  []types.Record
}

func newHarness(t *testing.T, reconcileBlocks ...uint64) *harness {
	settings := types.Settings{
		Oracle:        testutil.RandomAddress(),
		Treasury:      testutil.RandomAddress(),
		InsuranceFund: testutil.RandomAddress(),
	}
	return newHarnessWithSettings(t, settings, reconcileBlocks...)
}

func newHarnessWithSettings(t *testing.T, settings types.Settings, reconcileBlocks ...uint64) *harness {
	store := memdb.New()
	st, err := state.New(store, settings, 0)
	require.NoError(t, err)
	require.NoError(t, st.Bootstrap(t.Context()))

	tracker, err := oraclerun.NewTracker(testBlockTime, 86400, oraclerun.DefaultRunsBuffer)
	require.NoError(t, err)

	registry := mocks.NewNodeOperatorRegistry(t)
	chain := mocks.NewChainState(t)
	return &harness{
		t:        t,
		store:    store,
		engine:   NewEngine(st, registry, chain, tracker, reconcileBlocks),
		registry: registry,
		chain:    chain,
		settings: settings,
	}
}

// apply runs every event through the engine, persisting and committing each
// one like the indexer does.
func (h *harness) apply(events ...types.Event) {
	h.t.Helper()
	ctx := h.t.Context()
	for _, ev := range events {
		tx, err := h.engine.Apply(ctx, ev)
		require.NoError(h.t, err)
		if tx == nil {
			continue
		}
		require.NoError(h.t, h.store.SaveChangeset(ctx, tx.Changeset()))
		h.engine.Commit(tx)
		h.records = append(h.records, tx.Records()...)
	}
}

func (h *harness) balance(addr common.Address) uint256.Int {
	h.t.Helper()
	v, err := h.engine.State().ShareBalance(h.t.Context(), addr)
	require.NoError(h.t, err)
	return v
}

func (h *harness) reward(txHash common.Hash) *types.RewardEvent {
	h.t.Helper()
	r, err := h.store.LoadRewardEvent(h.t.Context(), txHash)
	require.NoError(h.t, err)
	require.NotNil(h.t, r)
	return r
}

// requireSharesInvariant checks that stored balances add up to total shares.
func (h *harness) requireSharesInvariant() {
	h.t.Helper()
	sum, err := h.store.SumShareBalances(h.t.Context())
	require.NoError(h.t, err)
	totals := h.engine.State().Totals()
	require.Equal(h.t, totals.TotalShares.Dec(), sum.Dec(), "share balances must add up to total shares")
}

func (h *harness) anomalies() []types.AnomalyKind {
	var kinds []types.AnomalyKind
	for _, r := range h.records {
		if a, ok := r.(*types.AnomalyRecord); ok {
			kinds = append(kinds, a.Kind)
		}
	}
	return kinds
}

func (h *harness) transfers() []*types.TransferRecord {
	var out []*types.TransferRecord
	for _, r := range h.records {
		if tr, ok := r.(*types.TransferRecord); ok {
			out = append(out, tr)
		}
	}
	return out
}

// chainTx builds the headers of the events of one transaction.
type chainTx struct {
	block uint64
	hash  common.Hash
	next  uint
}

func newChainTx(block uint64) *chainTx {
	return &chainTx{block: block, hash: testutil.RandomHash()}
}

func (c *chainTx) header() types.Header {
	h := types.Header{
		BlockNumber: c.block,
		BlockTime:   testBlockTime + c.block*12,
		TxHash:      c.hash,
		LogIndex:    c.next,
	}
	c.next++
	return h
}

func wei(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}
