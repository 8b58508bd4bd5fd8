package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/observability/tracing"
	"github.com/stakewatch/lido-ledger-indexer/internal/utils/poller"
)

// StartSyncPoller applies new confirmed blocks every polling interval. It
// blocks until ctx is done.
func (s *Service) StartSyncPoller(ctx context.Context) {
	syncPoller := poller.NewPoller(
		"sync",
		s.cfg.Poller.LogPollingInterval,
		metrics.TimeSyncRound("sync", s.syncNewBlocks),
	)
	syncPoller.Start(tracing.InjectComponent(ctx, "sync"))
}

// syncNewBlocks applies every confirmed block after the last processed one.
// A failed accounting event halts the indexer, since later events would be
// applied on stale totals.
func (s *Service) syncNewBlocks(ctx context.Context) error {
	head, err := s.eth.GetLatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block number: %w", err)
	}
	metrics.RecordChainHead(head)

	if head < s.cfg.Poller.Confirmations {
		return nil
	}
	safe := head - s.cfg.Poller.Confirmations
	if safe < s.nextBlock {
		log.Ctx(ctx).Debug().
			Uint64("head", head).
			Uint64("next_block", s.nextBlock).
			Msg("No confirmed blocks to process")
		return nil
	}

	for from := s.nextBlock; from <= safe; from += s.cfg.Poller.BatchSize {
		to := min(from+s.cfg.Poller.BatchSize-1, safe)
		if err := s.processBlockRange(ctx, from, to); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func (s *Service) processBlockRange(ctx context.Context, from, to uint64) error {
	events, err := s.eth.FetchEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch events of blocks %d-%d: %w", from, to, err)
	}

	log.Ctx(ctx).Debug().
		Uint64("from", from).
		Uint64("to", to).
		Int("events", len(events)).
		Msg("Processing block range")

	for _, ev := range events {
		if err := s.processEvent(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Ctx(ctx).Error().
				Err(err).
				Stringer("position", ev.EventHeader().Position()).
				Msg("Halting indexer")
			if s.halt != nil {
				s.halt(err)
			}
			return err
		}
	}

	if err := s.db.UpdateLastProcessedBlock(ctx, to); err != nil {
		return fmt.Errorf("failed to update last processed block: %w", err)
	}
	s.nextBlock = to + 1
	metrics.RecordLastProcessedBlock(to)
	return nil
}
