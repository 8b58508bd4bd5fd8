package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const eventMaxRetries = 5

var eventRetryInterval = 2 * time.Second

// processEvent applies ev to the ledger and the usage statistics, persists
// the changeset and then commits it in memory. Failures are retried, the
// returned error means the event could not be applied.
func (s *Service) processEvent(ctx context.Context, ev types.Event) error {
	startTime := time.Now()
	var attempts uint

	err := retry.Do(
		func() error {
			attempts++
			return s.applyEvent(ctx, ev)
		},
		retry.Context(ctx),
		retry.Attempts(eventMaxRetries),
		retry.Delay(eventRetryInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("event", ev.Type().String()).
				Stringer("position", ev.EventHeader().Position()).
				Msgf("Failed to process event, attempt %d/%d", n+1, eventMaxRetries)
		}),
	)

	metrics.RecordEventProcessingDuration(time.Since(startTime), ev.Type().String(), int(attempts)-1, err != nil)
	if err != nil {
		return fmt.Errorf("failed to process %s event: %w", ev.Type(), err)
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, ev types.Event) error {
	tx, err := s.engine.Apply(ctx, ev)
	if err != nil {
		return err
	}
	if tx == nil {
		return nil
	}

	cs := tx.Changeset()

	changes, err := s.usage.Apply(ctx, ev, tx.Records())
	if err != nil {
		// usage statistics never block the ledger
		h := ev.EventHeader()
		log.Ctx(ctx).Error().
			Err(err).
			Str("event", ev.Type().String()).
			Uint64("block", h.BlockNumber).
			Str("tx", h.TxHash.Hex()).
			Uint("log_index", h.LogIndex).
			Msg("Failed to aggregate usage")
		metrics.IncUsageFailures()
		changes = nil
	}
	cs.Usage = changes

	if err := s.db.SaveChangeset(ctx, cs); err != nil {
		return fmt.Errorf("failed to save changeset at %s: %w", cs.Position, err)
	}

	s.engine.Commit(tx)
	s.usage.Commit(changes)

	s.publishRewards(ctx, cs.FinalizedRewards())
	recordTotals(s.engine.State().Totals())
	return nil
}

func (s *Service) publishRewards(ctx context.Context, rewards []*types.RewardEvent) {
	if len(rewards) == 0 {
		return
	}
	for _, r := range rewards {
		log.Ctx(ctx).Info().
			Str("tx", r.TxHash.Hex()).
			Uint64("block", r.Block).
			Str("shares_minted", r.Shares2Mint.Dec()).
			Str("total_rewards", r.TotalRewards.String()).
			Msg("Reward event finalized")
		metrics.IncFinalizedRewards()
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRewards(ctx, rewards); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to publish finalized rewards")
	}
}

func recordTotals(t types.Totals) {
	metrics.RecordTotals(wholeUnits(t.TotalPooledEther), wholeUnits(t.TotalShares))
}

func wholeUnits(v uint256.Int) float64 {
	return decimal.NewFromBigInt(v.ToBig(), -18).InexactFloat64()
}
