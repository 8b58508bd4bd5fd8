package services

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc"

	"github.com/stakewatch/lido-ledger-indexer/internal/accounting"
	"github.com/stakewatch/lido-ledger-indexer/internal/clients/ethclient"
	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	"github.com/stakewatch/lido-ledger-indexer/internal/queue"
	"github.com/stakewatch/lido-ledger-indexer/internal/usage"
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	eth       ethclient.EthInterface
	engine    *accounting.Engine
	usage     *usage.Aggregator
	publisher queue.Publisher

	// nextBlock is the first block the sync poller has not fetched yet
	nextBlock uint64
	halt      context.CancelCauseFunc
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	eth ethclient.EthInterface,
	engine *accounting.Engine,
	usage *usage.Aggregator,
	publisher queue.Publisher,
) *Service {
	return &Service{
		cfg:       cfg,
		db:        db,
		eth:       eth,
		engine:    engine,
		usage:     usage,
		publisher: publisher,
	}
}

// StartIndexerSync restores the persisted state and follows the chain until
// ctx is done. It returns the error that halted indexing, if any.
func (s *Service) StartIndexerSync(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	s.halt = cancel

	if err := s.bootstrap(ctx); err != nil {
		return err
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		s.StartSyncPoller(ctx)
	})
	wg.Wait()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
