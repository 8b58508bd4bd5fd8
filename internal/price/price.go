// Package price resolves USD prices from a priority list of sources.
package price

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
)

var (
	// ETH is the pseudo-address native ether is priced under.
	ETH = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	// USD is the Chainlink denomination of US dollars.
	USD = common.HexToAddress("0x0000000000000000000000000000000000000348")
	// WETH is the ERC20 wrapper used by sources that can not price ether directly.
	WETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

// Result is a raw price: Price / 10^Decimals dollars per whole token.
type Result struct {
	Price    decimal.Decimal
	Decimals int32
	Reverted bool
	Source   string
}

func reverted(source string) Result {
	return Result{Price: decimal.Zero, Reverted: true, Source: source}
}

// Source never fails, an unavailable price is a reverted result.
type Source interface {
	Name() string
	TryGetPrice(ctx context.Context, token common.Address, block uint64) Result
}

type cacheKey struct {
	token common.Address
	block uint64
}

type Adapter struct {
	sources []Source
	cache   *lru.Cache[cacheKey, Result]
}

// NewAdapter tries sources in the given order.
func NewAdapter(sources ...Source) *Adapter {
	return &Adapter{sources: sources}
}

// NewCachedAdapter remembers the answer for the last size (token, block) pairs.
func NewCachedAdapter(size int, sources ...Source) (*Adapter, error) {
	if size <= 0 {
		return NewAdapter(sources...), nil
	}
	cache, err := lru.New[cacheKey, Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}
	return &Adapter{sources: sources, cache: cache}, nil
}

// GetUsdPrice returns the first non reverted answer for token at block.
func (a *Adapter) GetUsdPrice(ctx context.Context, token common.Address, block uint64) Result {
	if token == (common.Address{}) {
		return reverted("")
	}

	key := cacheKey{token: token, block: block}
	if a.cache != nil {
		if res, ok := a.cache.Get(key); ok {
			return res
		}
	}

	res := a.lookup(ctx, token, block)
	if a.cache != nil {
		a.cache.Add(key, res)
	}
	return res
}

func (a *Adapter) lookup(ctx context.Context, token common.Address, block uint64) Result {
	for _, source := range a.sources {
		res := source.TryGetPrice(ctx, token, block)
		outcome := metrics.Success
		if res.Reverted {
			outcome = metrics.Error
		}
		metrics.RecordPriceSourceOutcome(source.Name(), outcome)

		if !res.Reverted {
			return res
		}
		log.Ctx(ctx).Debug().
			Str("source", source.Name()).
			Str("token", token.Hex()).
			Uint64("block", block).
			Msg("price source reverted, trying next one")
	}

	return reverted("")
}

// GetUsdValue returns price * amount / 10^decimals, zero when no price is known.
// amount is expressed in whole tokens.
func (a *Adapter) GetUsdValue(ctx context.Context, token common.Address, amount decimal.Decimal, block uint64) decimal.Decimal {
	res := a.GetUsdPrice(ctx, token, block)
	if res.Reverted {
		return decimal.Zero
	}
	return res.Price.Mul(amount).Shift(-res.Decimals)
}
