package config

import (
	"errors"
	"time"
)

type EthConfig struct {
	RPCAddr       string        `mapstructure:"rpc-addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"maxretrytimes"`
	RetryInterval time.Duration `mapstructure:"retryinterval"`
}

func (cfg *EthConfig) Validate() error {
	if cfg.RPCAddr == "" {
		return errors.New("eth rpc-addr is required")
	}

	if cfg.Timeout <= 0 {
		return errors.New("eth timeout must be positive")
	}

	if cfg.MaxRetryTimes == 0 {
		return errors.New("eth maxretrytimes must be positive")
	}

	if cfg.RetryInterval <= 0 {
		return errors.New("eth retryinterval must be positive")
	}

	return nil
}
