// Package state holds the in-memory protocol aggregate the accounting engine
// mutates. Every event is applied through a Tx overlay which is either
// committed after the changeset was persisted or dropped.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	defaultBalanceCacheSize = 100_000
	rewardCacheSize         = 16
	reportCacheSize         = 256
)

// Loader reads persisted entities. Absent entities are returned as zero
// values or nil, never as errors.
type Loader interface {
	LoadProtocolSnapshot(ctx context.Context) (*types.ProtocolSnapshot, error)
	LoadShareBalance(ctx context.Context, addr common.Address) (uint256.Int, error)
	LoadRewardEvent(ctx context.Context, txHash common.Hash) (*types.RewardEvent, error)
	LoadOracleReport(ctx context.Context, id string) (*types.OracleReport, error)
}

type State struct {
	mu     sync.RWMutex
	loader Loader

	cursor    types.Position
	hasCursor bool
	lastTx    common.Hash
	version   uint64

	totals   types.Totals
	fees     types.FeeConfig
	settings types.Settings

	balances *lru.Cache[common.Address, uint256.Int]
	rewards  *lru.Cache[common.Hash, *types.RewardEvent]
	reports  *lru.Cache[string, *types.OracleReport]
}

// New creates an empty state. defaults are the contact addresses used until
// the protocol announces its own.
func New(loader Loader, defaults types.Settings, balanceCacheSize int) (*State, error) {
	if balanceCacheSize <= 0 {
		balanceCacheSize = defaultBalanceCacheSize
	}
	balances, err := lru.New[common.Address, uint256.Int](balanceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance cache: %w", err)
	}
	rewards, err := lru.New[common.Hash, *types.RewardEvent](rewardCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reward cache: %w", err)
	}
	reports, err := lru.New[string, *types.OracleReport](reportCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle report cache: %w", err)
	}

	return &State{
		loader:   loader,
		settings: defaults,
		balances: balances,
		rewards:  rewards,
		reports:  reports,
	}, nil
}

// Bootstrap restores the persisted singletons.
func (s *State) Bootstrap(ctx context.Context) error {
	snapshot, err := s.loader.LoadProtocolSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load protocol snapshot: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor = snapshot.Cursor
	s.hasCursor = true
	s.lastTx = snapshot.LastTx
	s.totals = snapshot.Totals
	s.fees = snapshot.Fees
	if snapshot.Settings != nil {
		s.settings = *snapshot.Settings
	}
	return nil
}

// Applied reports whether the event at pos was already applied.
func (s *State) Applied(pos types.Position) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasCursor && pos.Compare(s.cursor) <= 0
}

func (s *State) Cursor() (types.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cursor, s.hasCursor
}

func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

func (s *State) Totals() types.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totals
}

func (s *State) Fees() types.FeeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fees
}

func (s *State) Settings() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings
}

func (s *State) LastTx() common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastTx
}

// ShareBalance returns the committed balance of addr.
func (s *State) ShareBalance(ctx context.Context, addr common.Address) (uint256.Int, error) {
	if v, ok := s.balances.Get(addr); ok {
		return v, nil
	}
	v, err := s.loader.LoadShareBalance(ctx, addr)
	if err != nil {
		return uint256.Int{}, err
	}
	s.balances.Add(addr, v)
	return v, nil
}

func (s *State) rewardEvent(ctx context.Context, txHash common.Hash) (*types.RewardEvent, error) {
	if r, ok := s.rewards.Get(txHash); ok {
		return r, nil
	}
	r, err := s.loader.LoadRewardEvent(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if r != nil {
		s.rewards.Add(txHash, r)
	}
	return r, nil
}

func (s *State) oracleReport(ctx context.Context, id string) (*types.OracleReport, error) {
	if r, ok := s.reports.Get(id); ok {
		return r, nil
	}
	r, err := s.loader.LoadOracleReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if r != nil {
		s.reports.Add(id, r)
	}
	return r, nil
}

// Commit folds a persisted transaction into the committed state.
func (s *State) Commit(tx *Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.totals != nil {
		s.totals = *tx.totals
	}
	if tx.fees != nil {
		s.fees = *tx.fees
	}
	if tx.settings != nil {
		s.settings = *tx.settings
	}
	for addr, v := range tx.balances {
		s.balances.Add(addr, v)
	}
	for hash, r := range tx.rewards {
		s.rewards.Add(hash, r)
	}
	for id, r := range tx.reports {
		s.reports.Add(id, r)
	}

	s.cursor = tx.position
	s.hasCursor = true
	s.lastTx = tx.txHash
	s.version++
}
