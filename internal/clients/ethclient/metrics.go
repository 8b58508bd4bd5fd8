package ethclient

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/internal/utils"
)

type ethClientWithMetrics struct {
	eth EthInterface
}

func NewEthClientWithMetrics(eth EthInterface) EthInterface {
	return &ethClientWithMetrics{eth: eth}
}

func (e *ethClientWithMetrics) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	return runEthClientMethodWithMetrics(func() (uint64, error) {
		return e.eth.GetLatestBlockNumber(ctx)
	})
}

func (e *ethClientWithMetrics) FetchEvents(ctx context.Context, from, to uint64) ([]types.Event, error) {
	return runEthClientMethodWithMetrics(func() ([]types.Event, error) {
		return e.eth.FetchEvents(ctx, from, to)
	})
}

func (e *ethClientWithMetrics) GetTotalPooledEther(ctx context.Context, block uint64) (uint256.Int, error) {
	return runEthClientMethodWithMetrics(func() (uint256.Int, error) {
		return e.eth.GetTotalPooledEther(ctx, block)
	})
}

func (e *ethClientWithMetrics) GetRewardsDistribution(
	ctx context.Context, block uint64, totalRewardShares uint256.Int,
) ([]types.OperatorShare, error) {
	return runEthClientMethodWithMetrics(func() ([]types.OperatorShare, error) {
		return e.eth.GetRewardsDistribution(ctx, block, totalRewardShares)
	})
}

func (e *ethClientWithMetrics) LatestRoundAnswer(ctx context.Context, base, quote common.Address, block uint64) (*big.Int, error) {
	return runEthClientMethodWithMetrics(func() (*big.Int, error) {
		return e.eth.LatestRoundAnswer(ctx, base, quote, block)
	})
}

func (e *ethClientWithMetrics) Decimals(ctx context.Context, base, quote common.Address, block uint64) (uint8, error) {
	return runEthClientMethodWithMetrics(func() (uint8, error) {
		return e.eth.Decimals(ctx, base, quote, block)
	})
}

func (e *ethClientWithMetrics) GetPriceUsdcRecommended(ctx context.Context, token common.Address, block uint64) (*big.Int, error) {
	return runEthClientMethodWithMetrics(func() (*big.Int, error) {
		return e.eth.GetPriceUsdcRecommended(ctx, token, block)
	})
}

// runEthClientMethodWithMetrics labels the latency with the calling method's name.
func runEthClientMethodWithMetrics[T any](f func() (T, error)) (T, error) {
	method := utils.GetFunctionName(1)
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordEthClientLatency(duration, method, err != nil)
	return v, err
}
