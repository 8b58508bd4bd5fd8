package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	bootstrapRetryInterval = 10 * time.Second
	bootstrapMaxRetries    = 10
)

// bootstrap repairs an interrupted changeset, restores the protocol state and
// picks the block to resume from. Store failures are retried with backoff.
func (s *Service) bootstrap(ctx context.Context) error {
	err := retry.Do(
		func() error {
			return s.attemptBootstrap(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(bootstrapMaxRetries),
		retry.Delay(bootstrapRetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Err(err).
				Msgf("Failed to bootstrap the indexer, attempt %d/%d", n+1, bootstrapMaxRetries)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bootstrap the indexer: %w", err)
	}
	return nil
}

func (s *Service) attemptBootstrap(ctx context.Context) error {
	log := log.Ctx(ctx)

	recovered, err := s.db.RecoverJournal(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover journal: %w", err)
	}
	if recovered {
		log.Warn().Msg("Re-applied an interrupted changeset")
	}

	if err := s.engine.State().Bootstrap(ctx); err != nil {
		return err
	}
	s.usage.Reset()

	lastProcessed, err := s.db.GetLastProcessedBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last processed block: %w", err)
	}
	s.nextBlock = max(lastProcessed+1, s.cfg.Poller.StartBlock)

	st := s.engine.State()
	cursor, found := st.Cursor()
	totals := st.Totals()
	log.Info().
		Uint64("last_processed_block", lastProcessed).
		Uint64("next_block", s.nextBlock).
		Bool("has_cursor", found).
		Stringer("cursor", cursor).
		Str("total_pooled_ether", totals.TotalPooledEther.Dec()).
		Str("total_shares", totals.TotalShares.Dec()).
		Msg("Indexer bootstrapped")
	return nil
}
