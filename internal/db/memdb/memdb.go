// Package memdb keeps the indexer documents in memory. It stores exactly the
// documents the mongo store writes, so both share the encoding in model.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

var _ db.DbInterface = (*Store)(nil)

type Store struct {
	mu                 sync.RWMutex
	docs               map[string]map[string]bson.Raw
	lastProcessedBlock uint64

	// FailWritesAfter makes SaveChangeset fail after that many document
	// writes, leaving the journal behind. Zero disables it.
	FailWritesAfter int
}

func New() *Store {
	return &Store{docs: make(map[string]map[string]bson.Raw)}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) find(collection, id string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[collection][id]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *Store) put(collection, id string, raw bson.Raw) {
	c, ok := s.docs[collection]
	if !ok {
		c = make(map[string]bson.Raw)
		s.docs[collection] = c
	}
	c[id] = raw
}

// Count returns the number of documents in collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

// IDs returns the sorted document ids of collection.
func (s *Store) IDs(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs[collection]))
	for id := range s.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collections lists the collections holding at least one document.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name, c := range s.docs {
		if len(c) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Raw returns the stored bytes of one document.
func (s *Store) Raw(collection, id string) (bson.Raw, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[collection][id]
	return raw, ok
}

// Decode loads one stored document into out.
func (s *Store) Decode(collection, id string, out any) (bool, error) {
	return s.find(collection, id, out)
}

func (s *Store) LoadProtocolSnapshot(context.Context) (*types.ProtocolSnapshot, error) {
	var cursor model.CursorDocument
	found, err := s.find(model.ProtocolStateCollection, model.CursorID, &cursor)
	if err != nil || !found {
		return nil, err
	}

	var (
		totals   model.TotalsStateDocument
		fees     model.FeesStateDocument
		settings model.SettingsStateDocument
	)
	hasTotals, err := s.find(model.ProtocolStateCollection, model.TotalsID, &totals)
	if err != nil {
		return nil, err
	}
	hasFees, err := s.find(model.ProtocolStateCollection, model.FeesID, &fees)
	if err != nil {
		return nil, err
	}
	hasSettings, err := s.find(model.ProtocolStateCollection, model.SettingsID, &settings)
	if err != nil {
		return nil, err
	}

	var (
		totalsDoc   *model.TotalsStateDocument
		feesDoc     *model.FeesStateDocument
		settingsDoc *model.SettingsStateDocument
	)
	if hasTotals {
		totalsDoc = &totals
	}
	if hasFees {
		feesDoc = &fees
	}
	if hasSettings {
		settingsDoc = &settings
	}
	return model.BuildProtocolSnapshot(&cursor, totalsDoc, feesDoc, settingsDoc)
}

func (s *Store) LoadShareBalance(_ context.Context, holder common.Address) (uint256.Int, error) {
	var doc model.ShareBalanceDocument
	found, err := s.find(model.ShareBalanceCollection, holder.Hex(), &doc)
	if err != nil || !found {
		return uint256.Int{}, err
	}
	return doc.ToBalance()
}

func (s *Store) LoadRewardEvent(_ context.Context, txHash common.Hash) (*types.RewardEvent, error) {
	var doc model.RewardEventDocument
	found, err := s.find(model.RewardEventCollection, txHash.Hex(), &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToRewardEvent()
}

func (s *Store) LoadOracleReport(_ context.Context, id string) (*types.OracleReport, error) {
	var doc model.OracleReportDocument
	found, err := s.find(model.OracleReportCollection, id, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToOracleReport()
}

func (s *Store) SumShareBalances(ctx context.Context) (uint256.Int, error) {
	var sum uint256.Int
	for _, id := range s.IDs(model.ShareBalanceCollection) {
		balance, err := s.LoadShareBalance(ctx, common.HexToAddress(id))
		if err != nil {
			return sum, err
		}
		if _, overflow := sum.AddOverflow(&sum, &balance); overflow {
			return sum, fmt.Errorf("share balances overflow")
		}
	}
	return sum, nil
}

func (s *Store) LoadUsageSnapshot(_ context.Context, period types.Period, id string) (*types.UsageSnapshot, error) {
	var doc model.UsageSnapshotDocument
	found, err := s.find(model.UsageCollection(period), id, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToUsageSnapshot(period)
}

func (s *Store) LoadProtocolUsage(context.Context) (*types.ProtocolUsage, error) {
	var doc model.ProtocolUsageDocument
	found, err := s.find(model.ProtocolStateCollection, model.ProtocolUsageID, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToProtocolUsage()
}

func (s *Store) LoadHolder(_ context.Context, holder common.Address) (*types.Holder, error) {
	var doc model.HolderDocument
	found, err := s.find(model.HolderCollection, holder.Hex(), &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToHolder(), nil
}

func (s *Store) LoadHolderStats(context.Context) (*types.HolderStats, error) {
	var doc model.HolderStatsDocument
	found, err := s.find(model.ProtocolStateCollection, model.HolderStatsID, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToHolderStats(), nil
}

func (s *Store) SaveChangeset(_ context.Context, cs *types.Changeset) error {
	writes, err := model.ChangesetWrites(cs)
	if err != nil {
		return err
	}
	journal, err := bson.Marshal(&model.JournalDocument{
		ID:       model.PendingJournalID,
		Block:    cs.Position.Block,
		TxIndex:  cs.Position.TxIndex,
		LogIndex: cs.Position.LogIndex,
		Writes:   writes,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(model.JournalCollection, model.PendingJournalID, journal)
	for i, w := range writes {
		if s.FailWritesAfter > 0 && i == s.FailWritesAfter {
			return fmt.Errorf("injected write failure at %s/%s", w.Collection, w.ID)
		}
		s.put(w.Collection, w.ID, w.Doc)
	}
	delete(s.docs[model.JournalCollection], model.PendingJournalID)
	return nil
}

func (s *Store) RecoverJournal(context.Context) (bool, error) {
	var journal model.JournalDocument
	found, err := s.find(model.JournalCollection, model.PendingJournalID, &journal)
	if err != nil || !found {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range journal.Writes {
		s.put(w.Collection, w.ID, w.Doc)
	}
	delete(s.docs[model.JournalCollection], model.PendingJournalID)
	return true, nil
}

func (s *Store) GetLastProcessedBlock(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastProcessedBlock, nil
}

func (s *Store) UpdateLastProcessedBlock(_ context.Context, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProcessedBlock = block
	return nil
}
