package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/observability/metrics"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// Publisher announces finalized reward events to downstream consumers.
type Publisher interface {
	PublishRewards(ctx context.Context, rewards []*types.RewardEvent) error
	Shutdown()
}

type QueueManager struct {
	mu   sync.Mutex
	cfg  *config.QueueConfig
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a no-op publisher when no queue is configured.
func NewPublisher(cfg *config.QueueConfig) (Publisher, error) {
	if cfg == nil {
		log.Info().Msg("no queue configured, finalized rewards will not be published")
		return NoopPublisher{}, nil
	}
	return NewQueueManager(cfg)
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	qm := &QueueManager{cfg: cfg}
	if err := qm.connect(); err != nil {
		return nil, err
	}
	return qm, nil
}

func (qm *QueueManager) url() string {
	if qm.cfg.User == "" {
		return "amqp://" + qm.cfg.Url
	}
	return fmt.Sprintf("amqp://%s:%s@%s", qm.cfg.User, qm.cfg.Password, qm.cfg.Url)
}

func (qm *QueueManager) connect() error {
	conn, err := amqp.Dial(qm.url())
	if err != nil {
		return fmt.Errorf("failed to connect to the queue: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a queue channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if _, err := ch.QueueDeclare(qm.cfg.RewardsQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", qm.cfg.RewardsQueue, err)
	}
	if qm.cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(qm.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("failed to declare exchange %s: %w", qm.cfg.Exchange, err)
		}
		if err := ch.QueueBind(qm.cfg.RewardsQueue, qm.cfg.RewardsQueue, qm.cfg.Exchange, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("failed to bind queue %s: %w", qm.cfg.RewardsQueue, err)
		}
	}

	qm.conn = conn
	qm.ch = ch
	return nil
}

// PublishRewards sends one persistent message per reward and waits for the
// broker confirmation of each.
func (qm *QueueManager) PublishRewards(ctx context.Context, rewards []*types.RewardEvent) error {
	if len(rewards) == 0 {
		return nil
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn == nil || qm.conn.IsClosed() {
		log.Ctx(ctx).Warn().Msg("queue connection lost, reconnecting")
		if err := qm.connect(); err != nil {
			metrics.RecordQueueSendError()
			return err
		}
	}

	for _, r := range rewards {
		if err := qm.publish(ctx, r); err != nil {
			metrics.RecordQueueSendError()
			return fmt.Errorf("failed to publish reward %s: %w", r.TxHash.Hex(), err)
		}
		log.Ctx(ctx).Debug().
			Str("tx", r.TxHash.Hex()).
			Str("queue", qm.cfg.RewardsQueue).
			Msg("published finalized reward")
	}
	return nil
}

func (qm *QueueManager) publish(ctx context.Context, r *types.RewardEvent) error {
	msg := NewRewardFinalizedMessage(r)
	body, err := msg.Marshal()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	confirm, err := qm.ch.PublishWithDeferredConfirmWithContext(pubCtx, qm.cfg.Exchange, qm.cfg.RewardsQueue, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    time.Unix(int64(r.BlockTime), 0).UTC(),
			Body:         body,
		})
	if err != nil {
		return err
	}
	acked, err := confirm.WaitContext(pubCtx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("message was nacked by the broker")
	}
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.ch != nil {
		if err := qm.ch.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue channel")
		}
	}
	if qm.conn != nil {
		if err := qm.conn.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue connection")
		}
	}
}

type NoopPublisher struct{}

func (NoopPublisher) PublishRewards(context.Context, []*types.RewardEvent) error { return nil }

func (NoopPublisher) Shutdown() {}
