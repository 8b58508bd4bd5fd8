package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerConfig_Validate(t *testing.T) {
	t.Run("batch size not set - should use default", func(t *testing.T) {
		cfg := &PollerConfig{LogPollingInterval: time.Second}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, uint64(defaultBatchSize), cfg.BatchSize)
	})

	t.Run("explicit batch size is kept", func(t *testing.T) {
		cfg := &PollerConfig{LogPollingInterval: time.Second, BatchSize: 10}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, uint64(10), cfg.BatchSize)
	})

	t.Run("polling interval not set - should error", func(t *testing.T) {
		cfg := &PollerConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log-polling-interval must be positive")
	})
}
