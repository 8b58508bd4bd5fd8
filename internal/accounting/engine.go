// Package accounting applies protocol events to the share ledger.
package accounting

//go:generate mockery --name=NodeOperatorRegistry --output=../../tests/mocks --outpkg=mocks --filename=NodeOperatorRegistry.go
//go:generate mockery --name=ChainState --output=../../tests/mocks --outpkg=mocks --filename=ChainState.go

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/oraclerun"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// NodeOperatorRegistry splits the operators part of a rebase between operators.
// The returned shares may sum to less than requested.
type NodeOperatorRegistry interface {
	GetRewardsDistribution(ctx context.Context, block uint64, totalRewardShares uint256.Int) ([]types.OperatorShare, error)
}

// ChainState reads authoritative protocol values at a block.
type ChainState interface {
	GetTotalPooledEther(ctx context.Context, block uint64) (uint256.Int, error)
}

type Engine struct {
	state           *state.State
	registry        NodeOperatorRegistry
	chain           ChainState
	tracker         *oraclerun.Tracker
	reconcileBlocks map[uint64]struct{}

	// last committed submission, stake mints are matched against it
	lastSubmission *types.SubmissionRecord
}

func NewEngine(
	st *state.State,
	registry NodeOperatorRegistry,
	chain ChainState,
	tracker *oraclerun.Tracker,
	reconcileBlocks []uint64,
) *Engine {
	blocks := make(map[uint64]struct{}, len(reconcileBlocks))
	for _, b := range reconcileBlocks {
		blocks[b] = struct{}{}
	}
	return &Engine{
		state:           st,
		registry:        registry,
		chain:           chain,
		tracker:         tracker,
		reconcileBlocks: blocks,
	}
}

func (e *Engine) State() *state.State {
	return e.state
}

// Apply runs the handler of ev against a fresh state transaction. The
// returned transaction must be committed once its changeset is persisted.
// A nil transaction means the event was already applied.
func (e *Engine) Apply(ctx context.Context, ev types.Event) (*state.Tx, error) {
	h := ev.EventHeader()
	if e.state.Applied(h.Position()) {
		log.Ctx(ctx).Debug().
			Str("event", ev.Type().String()).
			Stringer("position", h.Position()).
			Msg("event already applied, skipping")
		return nil, nil
	}

	tx := e.state.Begin(h)
	if err := e.closePreviousTransaction(ctx, tx, h); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Debug().
		Str("event", ev.Type().String()).
		Uint64("block", h.BlockNumber).
		Str("tx", h.TxHash.Hex()).
		Uint("log_index", h.LogIndex).
		Msg("applying event")

	var err error
	switch ev := ev.(type) {
	case types.Submitted:
		err = e.handleSubmitted(ctx, tx, ev)
	case types.Transfer:
		err = e.handleTransfer(ctx, tx, ev)
	case types.TransferShares:
		tx.AddRecord(&types.SharesTransferRecord{Header: ev.Header, From: ev.From, To: ev.To, SharesValue: ev.SharesValue})
	case types.Approval:
		tx.AddRecord(&types.ApprovalRecord{Header: ev.Header, Owner: ev.Owner, Spender: ev.Spender, Value: ev.Value})
	case types.Withdrawal:
		err = e.handleWithdrawal(ctx, tx, ev)
	case types.SharesBurnt:
		err = e.handleSharesBurnt(ctx, tx, ev)
	case types.OracleCompleted:
		err = e.handleOracleCompleted(ctx, tx, ev)
	case types.ELRewardsReceived:
		err = e.handleELRewardsReceived(ctx, tx, ev)
	case types.FeeSet:
		e.handleFeeSet(tx, ev)
	case types.FeeDistributionSet:
		e.handleFeeDistributionSet(ctx, tx, ev)
	case types.ProtocolContactsSet:
		e.handleProtocolContactsSet(tx, ev)
	case types.BeaconValidatorsUpdated:
		err = e.reconcile(ctx, tx, ev.Header, ev.Type())
	case types.ReconcileBlock:
		err = e.handleReconcileBlock(ctx, tx, ev)
	case types.ProtocolStatusChanged:
		tx.AddRecord(&types.ProtocolStatusRecord{Header: ev.Header, Status: ev.Status, Params: ev.Params})
	case types.OracleChanged:
		tx.AddRecord(&types.OracleChangeRecord{Header: ev.Header, Change: ev.Change, Params: ev.Params})
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s at %s: %w", ev.Type(), h.Position(), err)
	}

	return tx, nil
}

// Commit folds a persisted transaction into the in-memory state.
func (e *Engine) Commit(tx *state.Tx) {
	e.state.Commit(tx)
	if sub, ok := tx.StagedSubmission(); ok {
		e.lastSubmission = sub
	}
}

// closePreviousTransaction finalizes the reward event of the previous
// transaction once events of another transaction arrive.
func (e *Engine) closePreviousTransaction(ctx context.Context, tx *state.Tx, h types.Header) error {
	prev := tx.PreviousTx()
	if prev == (common.Hash{}) || prev == h.TxHash {
		return nil
	}

	reward, err := tx.LoadRewardEvent(ctx, prev)
	if err != nil {
		return fmt.Errorf("failed to load reward event %s: %w", prev.Hex(), err)
	}
	if reward == nil || reward.State == types.RewardFinalized {
		return nil
	}

	if unassigned := reward.UnassignedShares(); !unassigned.IsZero() {
		e.anomaly(ctx, tx, h, types.EventOracleCompleted, types.KindUnassignedRewardShares,
			fmt.Sprintf("reward event %s finalized with %s unassigned shares", prev.Hex(), unassigned.Dec()))
	}
	reward.State = types.RewardFinalized
	tx.SaveRewardEvent(reward)
	return nil
}

// anomaly reports a recoverable accounting condition.
func (e *Engine) anomaly(
	ctx context.Context,
	tx *state.Tx,
	h types.Header,
	eventType types.EventType,
	kind types.AnomalyKind,
	msg string,
) {
	log.Ctx(ctx).Warn().
		Str("kind", kind.String()).
		Str("event", eventType.String()).
		Uint64("block", h.BlockNumber).
		Str("tx", h.TxHash.Hex()).
		Uint("log_index", h.LogIndex).
		Msg(msg)
	metrics.IncAnomaly(kind.String())

	tx.AddRecord(&types.AnomalyRecord{
		Header:  h,
		Kind:    kind,
		Event:   eventType,
		Message: msg,
	})
}
