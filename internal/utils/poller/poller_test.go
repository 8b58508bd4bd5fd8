package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoller(t *testing.T) {
	t.Run("polls until context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		var calls atomic.Int32
		p := NewPoller("test", time.Millisecond, func(context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}
			return errors.New("errors do not stop polling")
		})

		done := make(chan struct{})
		go func() {
			p.Start(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("poller did not stop")
		}
		assert.GreaterOrEqual(t, calls.Load(), int32(3))
	})

	t.Run("stop", func(t *testing.T) {
		var calls atomic.Int32
		p := NewPoller("test", time.Hour, func(context.Context) error {
			calls.Add(1)
			return nil
		})

		done := make(chan struct{})
		go func() {
			p.Start(t.Context())
			close(done)
		}()
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, time.Millisecond)
		p.Stop()
		<-done
	})
}
