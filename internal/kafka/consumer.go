package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
)

// ErrSkipMessage marks a handler error that retrying cannot fix, such as a
// payload that does not decode. Such messages are committed and dropped.
var ErrSkipMessage = errors.New("unprocessable message")

const defaultHandleAttempts = 3

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type HandlerFunc func(ctx context.Context, key, value []byte) error

// Consumer feeds every message from the reader to a handler and commits its
// offset only once the handler succeeded or rejected it with ErrSkipMessage.
// Other handler errors are retried up to handleAttempts times, after which
// Run stops without committing so the group redelivers the message.
type Consumer struct {
	reader         MessageReader
	handle         HandlerFunc
	logger         *zap.Logger
	retryDelay     time.Duration
	handleAttempts int
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
}

func NewConsumer(reader MessageReader, handle HandlerFunc, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:         reader,
		handle:         handle,
		logger:         logger.Named("consumer"),
		retryDelay:     5 * time.Second,
		handleAttempts: defaultHandleAttempts,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		c.logger.Info("Closing Kafka reader")
		if err := c.reader.Close(); err != nil {
			c.logger.Error("failed to close Kafka reader", zap.Error(err))
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message", zap.Error(err))
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		logger := c.logger.With(
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.ByteString("key", m.Key),
		)

		err = c.handleWithRetry(ctx, m, logger)
		switch {
		case err == nil:
			metrics.ConsumedMessagesTotal.WithLabelValues("handled").Inc()
			logger.Debug("message handled")
		case errors.Is(err, ErrSkipMessage):
			metrics.ConsumedMessagesTotal.WithLabelValues("skipped").Inc()
			logger.Error("dropping message", zap.Error(err))
		case ctx.Err() != nil:
			c.logger.Info("Consumer context cancelled, stopping")
			return nil
		default:
			metrics.ConsumedMessagesTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("failed to handle message at offset %d after %d attempts: %w", m.Offset, c.handleAttempts, err)
		}

		// A cancelled context must not stop the commit of a handled message.
		if err := c.reader.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", m.Offset, err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message, logger *zap.Logger) error {
	var err error
	for attempt := 1; attempt <= c.handleAttempts; attempt++ {
		err = c.handle(ctx, m.Key, m.Value)
		if err == nil || errors.Is(err, ErrSkipMessage) {
			return err
		}
		logger.Warn("failed to handle message", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < c.handleAttempts && !c.wait(ctx) {
			return err
		}
	}
	return err
}

// wait sleeps for retryDelay and reports false if ctx ended first.
func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}
