package state

import (
	"bytes"
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// Tx is the overlay of a single event. Reads fall through to the committed
// state, writes stay local until State.Commit.
type Tx struct {
	st       *State
	position types.Position
	txHash   common.Hash

	totals   *types.Totals
	fees     *types.FeeConfig
	settings *types.Settings
	balances map[common.Address]uint256.Int
	rewards  map[common.Hash]*types.RewardEvent
	reports  map[string]*types.OracleReport
	records  []types.Record

	// copies handed out by LoadRewardEvent, written only on SaveRewardEvent
	rewardCopies map[common.Hash]*types.RewardEvent

	submission       *types.SubmissionRecord
	submissionStaged bool
}

func (s *State) Begin(h types.Header) *Tx {
	return &Tx{
		st:       s,
		position: h.Position(),
		txHash:   h.TxHash,
		balances: make(map[common.Address]uint256.Int),
		rewards:  make(map[common.Hash]*types.RewardEvent),
		reports:  make(map[string]*types.OracleReport),

		rewardCopies: make(map[common.Hash]*types.RewardEvent),
	}
}

func (tx *Tx) Position() types.Position {
	return tx.position
}

// PreviousTx is the transaction of the last committed event.
func (tx *Tx) PreviousTx() common.Hash {
	return tx.st.LastTx()
}

func (tx *Tx) LoadTotals() types.Totals {
	if tx.totals != nil {
		return *tx.totals
	}
	return tx.st.Totals()
}

func (tx *Tx) SaveTotals(t types.Totals) {
	tx.totals = &t
}

func (tx *Tx) LoadFeeConfig() types.FeeConfig {
	if tx.fees != nil {
		return *tx.fees
	}
	return tx.st.Fees()
}

func (tx *Tx) SaveFeeConfig(f types.FeeConfig) {
	tx.fees = &f
}

func (tx *Tx) LoadSettings() types.Settings {
	if tx.settings != nil {
		return *tx.settings
	}
	return tx.st.Settings()
}

func (tx *Tx) SaveSettings(s types.Settings) {
	tx.settings = &s
}

// LoadShareBalance returns the balance of addr, zero when it never held shares.
func (tx *Tx) LoadShareBalance(ctx context.Context, addr common.Address) (uint256.Int, error) {
	if v, ok := tx.balances[addr]; ok {
		return v, nil
	}
	return tx.st.ShareBalance(ctx, addr)
}

func (tx *Tx) SaveShareBalance(addr common.Address, v uint256.Int) {
	tx.balances[addr] = v
}

// LoadRewardEvent returns a private copy of the reward event of txHash, or nil.
func (tx *Tx) LoadRewardEvent(ctx context.Context, txHash common.Hash) (*types.RewardEvent, error) {
	if r, ok := tx.rewards[txHash]; ok {
		return r, nil
	}
	if r, ok := tx.rewardCopies[txHash]; ok {
		return r, nil
	}
	r, err := tx.st.rewardEvent(ctx, txHash)
	if err != nil || r == nil {
		return nil, err
	}
	c := r.Clone()
	tx.rewardCopies[txHash] = c
	return c, nil
}

func (tx *Tx) SaveRewardEvent(r *types.RewardEvent) {
	tx.rewards[r.TxHash] = r
}

func (tx *Tx) LoadOracleReport(ctx context.Context, id string) (*types.OracleReport, error) {
	if r, ok := tx.reports[id]; ok {
		return r, nil
	}
	return tx.st.oracleReport(ctx, id)
}

// OracleReportExists satisfies the run tracker lookup.
func (tx *Tx) OracleReportExists(ctx context.Context, id string) (bool, error) {
	r, err := tx.LoadOracleReport(ctx, id)
	if err != nil {
		return false, err
	}
	return r != nil, nil
}

func (tx *Tx) SaveOracleReport(r *types.OracleReport) {
	tx.reports[r.ID] = r
}

// StageSubmission sets the submission later stake mints are matched
// against, once the transaction is committed. nil clears it.
func (tx *Tx) StageSubmission(r *types.SubmissionRecord) {
	tx.submission = r
	tx.submissionStaged = true
}

// StagedSubmission reports whether the transaction replaces the last
// submission, and with what.
func (tx *Tx) StagedSubmission() (*types.SubmissionRecord, bool) {
	return tx.submission, tx.submissionStaged
}

func (tx *Tx) AddRecord(r types.Record) {
	tx.records = append(tx.records, r)
}

func (tx *Tx) Records() []types.Record {
	return tx.records
}

// Changeset lists every entity written by the transaction in a stable order.
func (tx *Tx) Changeset() *types.Changeset {
	cs := &types.Changeset{
		Position: tx.position,
		LastTx:   tx.txHash,
		Totals:   tx.totals,
		Fees:     tx.fees,
		Settings: tx.settings,
		Balances: make(map[common.Address]uint256.Int, len(tx.balances)),
		Records:  tx.records,
	}
	for addr, v := range tx.balances {
		cs.Balances[addr] = v
	}

	hashes := make([]common.Hash, 0, len(tx.rewards))
	for h := range tx.rewards {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	for _, h := range hashes {
		cs.Rewards = append(cs.Rewards, tx.rewards[h])
	}

	ids := make([]string, 0, len(tx.reports))
	for id := range tx.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cs.OracleReports = append(cs.OracleReports, tx.reports[id])
	}
	return cs
}
