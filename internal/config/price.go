package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/stakewatch/lido-ledger-indexer/internal/utils"
)

const (
	PriceSourceChainlink = "chainlink"
	PriceSourceYearnLens = "yearn-lens"
	PriceSourceStatic    = "static"
)

type PriceConfig struct {
	// Sources are tried in order, the first non reverted answer wins
	Sources           []string `mapstructure:"sources"`
	ChainlinkRegistry string   `mapstructure:"chainlink-registry"`
	YearnLens         string   `mapstructure:"yearn-lens"`
	StaticEthUsd      string   `mapstructure:"static-eth-usd"`
	// CacheSize bounds the per block price cache, 0 disables it
	CacheSize int `mapstructure:"cache-size"`
}

func (cfg *PriceConfig) Validate() error {
	for i, s := range cfg.Sources {
		if utils.Contains(cfg.Sources[:i], s) {
			return fmt.Errorf("price source %q is listed twice", s)
		}
		switch s {
		case PriceSourceChainlink:
			if !common.IsHexAddress(cfg.ChainlinkRegistry) {
				return fmt.Errorf("price chainlink-registry is invalid: %q", cfg.ChainlinkRegistry)
			}
		case PriceSourceYearnLens:
			if !common.IsHexAddress(cfg.YearnLens) {
				return fmt.Errorf("price yearn-lens is invalid: %q", cfg.YearnLens)
			}
		case PriceSourceStatic:
			if _, err := decimal.NewFromString(cfg.StaticEthUsd); err != nil {
				return fmt.Errorf("price static-eth-usd is invalid: %w", err)
			}
		default:
			return fmt.Errorf("unknown price source %q", s)
		}
	}

	if cfg.CacheSize < 0 {
		return fmt.Errorf("price cache-size must not be negative")
	}

	return nil
}
