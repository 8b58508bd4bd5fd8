package config

import (
	"errors"
	"time"
)

type QueueConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Url is host:port of the broker without the amqp:// prefix
	Url            string        `mapstructure:"url"`
	Exchange       string        `mapstructure:"exchange"`
	RewardsQueue   string        `mapstructure:"rewards-queue"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return errors.New("queue url is required")
	}

	if cfg.RewardsQueue == "" {
		return errors.New("queue rewards-queue is required")
	}

	if cfg.PublishTimeout <= 0 {
		return errors.New("queue publish-timeout must be positive")
	}

	return nil
}
