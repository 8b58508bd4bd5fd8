package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Db      DbConfig      `mapstructure:"db"`
	Eth     EthConfig     `mapstructure:"eth"`
	Network NetworkConfig `mapstructure:"network"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Price   PriceConfig   `mapstructure:"price"`
	// Queue is optional, finalized rewards are not published without it
	Queue   *QueueConfig  `mapstructure:"queue"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}

	if err := cfg.Eth.Validate(); err != nil {
		return err
	}

	if err := cfg.Network.Validate(); err != nil {
		return err
	}

	if err := cfg.Poller.Validate(); err != nil {
		return err
	}

	if err := cfg.Price.Validate(); err != nil {
		return err
	}

	if cfg.Queue != nil {
		if err := cfg.Queue.Validate(); err != nil {
			return err
		}
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}

	return nil
}

// New returns a fully parsed Config object from a given file path.
// Values can be overridden by environment variables, e.g. DB_ADDRESS for db.address.
func New(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Network.applyDefaults(); err != nil {
		return nil, fmt.Errorf("invalid network config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
