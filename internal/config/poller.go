package config

import (
	"errors"
	"time"
)

const defaultBatchSize = 1000

type PollerConfig struct {
	// LogPollingInterval is how often new blocks are checked for protocol logs
	LogPollingInterval time.Duration `mapstructure:"log-polling-interval"`
	// BatchSize is the maximum block range of a single log query
	BatchSize uint64 `mapstructure:"batch-size"`
	// Confirmations keeps the indexer this many blocks behind the head
	Confirmations uint64 `mapstructure:"confirmations"`
	// StartBlock is used when nothing was processed yet
	StartBlock uint64 `mapstructure:"start-block"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.LogPollingInterval <= 0 {
		return errors.New("log-polling-interval must be positive")
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}

	return nil
}
