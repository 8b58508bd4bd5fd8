package price

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const yearnLensDecimals = 6

// FeedRegistry is the Chainlink feed registry.
type FeedRegistry interface {
	LatestRoundAnswer(ctx context.Context, base, quote common.Address, block uint64) (*big.Int, error)
	Decimals(ctx context.Context, base, quote common.Address, block uint64) (uint8, error)
}

// Lens is the Yearn price lens.
type Lens interface {
	GetPriceUsdcRecommended(ctx context.Context, token common.Address, block uint64) (*big.Int, error)
}

type ChainlinkSource struct {
	registry FeedRegistry
}

func NewChainlinkSource(registry FeedRegistry) *ChainlinkSource {
	return &ChainlinkSource{registry: registry}
}

func (s *ChainlinkSource) Name() string {
	return "chainlink"
}

func (s *ChainlinkSource) TryGetPrice(ctx context.Context, token common.Address, block uint64) Result {
	answer, err := s.registry.LatestRoundAnswer(ctx, token, USD, block)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("token", token.Hex()).Msg("chainlink latestRoundData failed")
		return reverted(s.Name())
	}
	if answer.Sign() <= 0 {
		return reverted(s.Name())
	}

	decimals, err := s.registry.Decimals(ctx, token, USD, block)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("token", token.Hex()).Msg("chainlink decimals failed")
		return reverted(s.Name())
	}

	return Result{
		Price:    decimal.NewFromBigInt(answer, 0),
		Decimals: int32(decimals),
		Source:   s.Name(),
	}
}

type YearnLensSource struct {
	lens Lens
}

func NewYearnLensSource(lens Lens) *YearnLensSource {
	return &YearnLensSource{lens: lens}
}

func (s *YearnLensSource) Name() string {
	return "yearn-lens"
}

func (s *YearnLensSource) TryGetPrice(ctx context.Context, token common.Address, block uint64) Result {
	if token == ETH {
		token = WETH
	}
	answer, err := s.lens.GetPriceUsdcRecommended(ctx, token, block)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("token", token.Hex()).Msg("yearn lens lookup failed")
		return reverted(s.Name())
	}
	if answer.Sign() <= 0 {
		return reverted(s.Name())
	}

	return Result{
		Price:    decimal.NewFromBigInt(answer, 0),
		Decimals: yearnLensDecimals,
		Source:   s.Name(),
	}
}

// StaticSource answers a fixed price for a fixed set of tokens.
type StaticSource struct {
	prices map[common.Address]decimal.Decimal
}

func NewStaticSource(prices map[common.Address]decimal.Decimal) *StaticSource {
	return &StaticSource{prices: prices}
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) TryGetPrice(_ context.Context, token common.Address, _ uint64) Result {
	p, ok := s.prices[token]
	if !ok || !p.IsPositive() {
		return reverted(s.Name())
	}
	return Result{Price: p, Source: s.Name()}
}
