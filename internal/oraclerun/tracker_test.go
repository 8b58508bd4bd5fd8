package oraclerun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type existing map[string]bool

func (e existing) OracleReportExists(_ context.Context, id string) (bool, error) {
	return e[id], nil
}

func runs(n uint64) existing {
	e := existing{}
	for i := range n {
		e[FormatID(i)] = true
	}
	return e
}

func TestGuessRunsTotal(t *testing.T) {
	mainnet, err := NewTracker(1610016625, 86400, DefaultRunsBuffer)
	require.NoError(t, err)

	assert.Equal(t, uint64(50), mainnet.GuessRunsTotal(1610016625))
	assert.Equal(t, uint64(50), mainnet.GuessRunsTotal(1))
	assert.Equal(t, uint64(60), mainnet.GuessRunsTotal(1610016625+10*86400+5))

	_, err = NewTracker(0, 0, 0)
	assert.Error(t, err)
}

func TestPreviousID(t *testing.T) {
	prev, ok := PreviousID(FormatID(10))
	assert.True(t, ok)
	assert.Equal(t, "000000000009", prev)

	_, ok = PreviousID("not-a-run")
	assert.False(t, ok)
}

func TestIDs(t *testing.T) {
	ctx := t.Context()
	// testnet period, so ten days of reports
	tracker, err := NewTracker(1617282681, 3840, DefaultRunsBuffer)
	require.NoError(t, err)
	ts := uint64(1617282681 + 10*86400)

	t.Run("no reports", func(t *testing.T) {
		next, err := tracker.NextID(ctx, existing{}, ts)
		require.NoError(t, err)
		assert.Equal(t, "000000000000", next)

		_, found := PreviousID(next)
		assert.False(t, found)
	})

	t.Run("fewer runs than estimated", func(t *testing.T) {
		lookup := runs(3)
		next, err := tracker.NextID(ctx, lookup, ts)
		require.NoError(t, err)
		assert.Equal(t, FormatID(3), next)

		prev, found := PreviousID(next)
		assert.True(t, found)
		assert.Equal(t, FormatID(2), prev)
	})

	t.Run("more runs than estimated", func(t *testing.T) {
		estimate := tracker.GuessRunsTotal(ts)
		lookup := runs(estimate + 20)
		next, err := tracker.NextID(ctx, lookup, ts)
		require.NoError(t, err)
		n, err := ParseID(next)
		require.NoError(t, err)
		assert.Equal(t, estimate+20, n)
	})
}
