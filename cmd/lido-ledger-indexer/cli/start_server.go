package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/stakewatch/lido-ledger-indexer/internal/accounting"
	"github.com/stakewatch/lido-ledger-indexer/internal/clients/ethclient"
	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/db"
	dbmodel "github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/observability/tracing"
	"github.com/stakewatch/lido-ledger-indexer/internal/oraclerun"
	"github.com/stakewatch/lido-ledger-indexer/internal/price"
	"github.com/stakewatch/lido-ledger-indexer/internal/queue"
	"github.com/stakewatch/lido-ledger-indexer/internal/services"
	"github.com/stakewatch/lido-ledger-indexer/internal/state"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/internal/usage"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the Lido ledger indexer",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	cmd.Flags().Int("holder-cache-size", 0, "Number of known holders kept in memory (0 uses the default)")

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	holderCacheSize, err := cmd.Flags().GetInt("holder-cache-size")
	if err != nil {
		return err
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		return fmt.Errorf("error while setting up the db model: %w", err)
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return fmt.Errorf("error while creating db client: %w", err)
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var ethClient ethclient.EthInterface
	ethClient, err = ethclient.NewEthClient(ctx, &cfg.Eth, &cfg.Network, &cfg.Price)
	if err != nil {
		return fmt.Errorf("error while creating eth client: %w", err)
	}
	ethClient = ethclient.NewEthClientWithMetrics(ethClient)

	prices, err := newPriceAdapter(&cfg.Price, ethClient)
	if err != nil {
		return fmt.Errorf("error while creating price adapter: %w", err)
	}

	st, err := state.New(dbClient, networkSettings(&cfg.Network), cfg.Db.BalanceCacheSize)
	if err != nil {
		return fmt.Errorf("error while creating protocol state: %w", err)
	}

	tracker, err := oraclerun.NewTracker(cfg.Network.FirstOracleReport, cfg.Network.OraclePeriod, cfg.Network.OracleRunsBuffer)
	if err != nil {
		return fmt.Errorf("error while creating oracle run tracker: %w", err)
	}
	engine := accounting.NewEngine(st, ethClient, ethClient, tracker, cfg.Network.ReconcileBlocks)

	aggregator, err := usage.NewAggregator(dbClient, prices, holderCacheSize)
	if err != nil {
		return fmt.Errorf("error while creating usage aggregator: %w", err)
	}

	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		return fmt.Errorf("error while creating queue publisher: %w", err)
	}
	defer publisher.Shutdown()

	service := services.NewService(cfg, dbClient, ethClient, engine, aggregator, publisher)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	log.Info().
		Str("network", cfg.Network.Name).
		Str("lido", cfg.Network.Lido).
		Msg("Starting indexer")

	return service.StartIndexerSync(ctx)
}

func networkSettings(cfg *config.NetworkConfig) types.Settings {
	return types.Settings{
		Oracle:        cfg.OracleAddress(),
		Treasury:      cfg.TreasuryAddress(),
		InsuranceFund: cfg.InsuranceFundAddress(),
	}
}

type priceContracts interface {
	price.FeedRegistry
	price.Lens
}

// newPriceAdapter builds the configured sources in priority order.
func newPriceAdapter(cfg *config.PriceConfig, contracts priceContracts) (*price.Adapter, error) {
	sources := make([]price.Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		switch name {
		case config.PriceSourceChainlink:
			sources = append(sources, price.NewChainlinkSource(contracts))
		case config.PriceSourceYearnLens:
			sources = append(sources, price.NewYearnLensSource(contracts))
		case config.PriceSourceStatic:
			ethUsd, err := decimal.NewFromString(cfg.StaticEthUsd)
			if err != nil {
				return nil, fmt.Errorf("invalid static eth price: %w", err)
			}
			sources = append(sources, price.NewStaticSource(map[common.Address]decimal.Decimal{price.ETH: ethUsd}))
		default:
			return nil, fmt.Errorf("unknown price source %q", name)
		}
	}
	return price.NewCachedAdapter(cfg.CacheSize, sources...)
}
