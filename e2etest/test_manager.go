//go:build e2e

package e2etest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/e2etest/container"
	"github.com/stakewatch/lido-ledger-indexer/internal/accounting"
	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/oraclerun"
	"github.com/stakewatch/lido-ledger-indexer/internal/price"
	"github.com/stakewatch/lido-ledger-indexer/internal/queue"
	"github.com/stakewatch/lido-ledger-indexer/internal/services"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/internal/usage"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

var (
	eventuallyWaitTimeOut = 40 * time.Second
	eventuallyPollTime    = 500 * time.Millisecond
)

type TestManager struct {
	Config      *config.Config
	Chain       *Chain
	DbClient    *db.Database
	Rewards     <-chan amqp.Delivery
	manager     *container.Manager
	publisher   queue.Publisher
	rabbitConn  *amqp.Connection
	cancel      context.CancelFunc
	indexerDone chan error
}

func DefaultLedgerIndexerConfig() *config.Config {
	return &config.Config{
		Db: config.DbConfig{
			Username: container.MongoUsername,
			Password: container.MongoPassword,
			DbName:   container.MongoDatabase,
		},
		Eth: config.EthConfig{
			RPCAddr:       "http://localhost:8545",
			Timeout:       5 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 100 * time.Millisecond,
		},
		Network: config.NetworkConfig{
			Name:                 "e2e",
			Lido:                 testutil.RandomAddress().Hex(),
			Oracle:               testutil.RandomAddress().Hex(),
			NodeOperatorRegistry: testutil.RandomAddress().Hex(),
			Treasury:             testutil.RandomAddress().Hex(),
			InsuranceFund:        testutil.RandomAddress().Hex(),
			FirstOracleReport:    chainGenesisTime,
			OraclePeriod:         86400,
			OracleRunsBuffer:     oraclerun.DefaultRunsBuffer,
		},
		Poller: config.PollerConfig{
			LogPollingInterval: 200 * time.Millisecond,
			BatchSize:          10,
			StartBlock:         1,
		},
		Price: config.PriceConfig{
			Sources:      []string{config.PriceSourceStatic},
			StaticEthUsd: "2000",
		},
		Queue: &config.QueueConfig{
			User:           container.RabbitUser,
			Password:       container.RabbitPassword,
			RewardsQueue:   "finalized_rewards",
			PublishTimeout: 5 * time.Second,
		},
		Metrics: config.MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

// StartManager runs mongo and rabbitmq in docker and starts the indexer
// against a scripted chain.
func StartManager(t *testing.T) *TestManager {
	manager, err := container.NewManager(t)
	require.NoError(t, err)

	cfg := DefaultLedgerIndexerConfig()
	cfg.Db.Address, err = manager.RunMongoResource()
	require.NoError(t, err)
	cfg.Queue.Url, err = manager.RunRabbitResource()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	ctx := context.Background()

	var dbClient *db.Database
	require.NoError(t, manager.Retry(func() error {
		dbClient, err = db.New(ctx, cfg.Db)
		if err != nil {
			return err
		}
		return dbClient.Ping(ctx)
	}))
	require.NoError(t, model.Setup(ctx, &cfg.Db))

	var publisher queue.Publisher
	require.NoError(t, manager.Retry(func() error {
		publisher, err = queue.NewPublisher(cfg.Queue)
		return err
	}))

	rabbitConn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", container.RabbitUser, container.RabbitPassword, cfg.Queue.Url))
	require.NoError(t, err)
	ch, err := rabbitConn.Channel()
	require.NoError(t, err)
	rewards, err := ch.Consume(cfg.Queue.RewardsQueue, "e2e", true, false, false, false, nil)
	require.NoError(t, err)

	chain := NewChain()
	settings := types.Settings{
		Oracle:        cfg.Network.OracleAddress(),
		Treasury:      cfg.Network.TreasuryAddress(),
		InsuranceFund: cfg.Network.InsuranceFundAddress(),
	}
	st, err := state.New(dbClient, settings, 0)
	require.NoError(t, err)
	tracker, err := oraclerun.NewTracker(cfg.Network.FirstOracleReport, cfg.Network.OraclePeriod, cfg.Network.OracleRunsBuffer)
	require.NoError(t, err)
	engine := accounting.NewEngine(st, chain, chain, tracker, cfg.Network.ReconcileBlocks)

	prices := price.NewAdapter(price.NewStaticSource(map[common.Address]decimal.Decimal{
		price.ETH: decimal.RequireFromString(cfg.Price.StaticEthUsd),
	}))
	aggregator, err := usage.NewAggregator(dbClient, prices, 0)
	require.NoError(t, err)

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), chain, engine, aggregator, publisher)

	indexerCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- service.StartIndexerSync(indexerCtx)
	}()

	return &TestManager{
		Config:      cfg,
		Chain:       chain,
		DbClient:    dbClient,
		Rewards:     rewards,
		manager:     manager,
		publisher:   publisher,
		rabbitConn:  rabbitConn,
		cancel:      cancel,
		indexerDone: done,
	}
}

// WaitForBlock waits until the indexer processed block.
func (tm *TestManager) WaitForBlock(t *testing.T, block uint64) {
	require.Eventually(t, func() bool {
		last, err := tm.DbClient.GetLastProcessedBlock(context.Background())
		return err == nil && last >= block
	}, eventuallyWaitTimeOut, eventuallyPollTime)
}

func (tm *TestManager) Stop(t *testing.T) {
	tm.cancel()
	require.NoError(t, <-tm.indexerDone)

	tm.publisher.Shutdown()
	require.NoError(t, tm.rabbitConn.Close())
	require.NoError(t, tm.DbClient.Disconnect(context.Background()))
}
