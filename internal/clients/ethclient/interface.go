package ethclient

//go:generate mockery --name=EthInterface --output=../../../tests/mocks --outpkg=mocks --filename=EthInterface.go

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

type EthInterface interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	// FetchEvents returns the protocol events of [from, to] in chain order,
	// including the reconciliation points of allow-listed blocks.
	FetchEvents(ctx context.Context, from, to uint64) ([]types.Event, error)

	GetTotalPooledEther(ctx context.Context, block uint64) (uint256.Int, error)
	GetRewardsDistribution(ctx context.Context, block uint64, totalRewardShares uint256.Int) ([]types.OperatorShare, error)

	LatestRoundAnswer(ctx context.Context, base, quote common.Address, block uint64) (*big.Int, error)
	Decimals(ctx context.Context, base, quote common.Address, block uint64) (uint8, error)
	GetPriceUsdcRecommended(ctx context.Context, token common.Address, block uint64) (*big.Int, error)
}
