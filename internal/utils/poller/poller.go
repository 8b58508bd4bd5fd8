package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller runs pollMethod every interval until stopped. A poll that keeps the
// method busy longer than interval delays the next tick, polls never overlap.
type Poller struct {
	name       string
	interval   time.Duration
	quit       chan struct{}
	pollMethod func(ctx context.Context) error
}

func NewPoller(name string, interval time.Duration, pollMethod func(ctx context.Context) error) *Poller {
	return &Poller{
		name:       name,
		interval:   interval,
		quit:       make(chan struct{}),
		pollMethod: pollMethod,
	}
}

// Start blocks until ctx is cancelled or Stop is called. The first poll runs
// immediately.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log := log.With().Str("poller", p.name).Logger()
	log.Info().Msgf("Starting poller with interval %s", p.interval)

	poll := func() {
		log.Debug().Msg("Executing poll method")
		if err := p.pollMethod(ctx); err != nil {
			log.Error().Err(err).Msg("Error polling")
		} else {
			log.Debug().Msg("Poll method executed successfully")
		}
	}

	poll()
	for {
		select {
		case <-ticker.C:
			poll()
		case <-ctx.Done():
			log.Info().Msg("Poller stopped due to context cancellation")
			return
		case <-p.quit:
			log.Info().Msg("Poller stopped")
			return
		}
	}
}

func (p *Poller) Stop() {
	close(p.quit)
}
