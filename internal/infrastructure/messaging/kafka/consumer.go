package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Handler processes a decoded analysis request. Returning an error leaves
// the offset uncommitted so the message is retried.
type Handler func(ctx context.Context, msg AnalysisRequested) error

// readerAPI abstracts kafka.Reader for testing.
type readerAPI interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads analysis requests in a consumer group and dispatches them
// to a handler with bounded retries.
type Consumer struct {
	reader     readerAPI
	logger     logging.Logger
	maxRetries int
	backoff    time.Duration
}

// NewConsumer creates a consumer-group reader on the analysis request topic.
func NewConsumer(cfg config.KafkaConfig, worker config.WorkerConfig, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers are required")
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "clauselens-workers"
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     groupID,
		Topic:       TopicAnalysisRequested,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
		MaxWait:     time.Second,
	})

	backoff := worker.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxRetries := worker.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Consumer{
		reader:     reader,
		logger:     log.Named("kafka.consumer"),
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// Run consumes until ctx is canceled or the reader is closed. Messages that
// fail to decode are committed and skipped; handler failures are retried
// with backoff, then committed anyway so a poison message cannot stall the
// partition.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to fetch kafka message")
		}

		msg, err := DecodeAnalysisRequested(m.Value)
		if err != nil {
			c.logger.Warn("skipping undecodable message",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
			if err := c.commit(ctx, m); err != nil {
				return err
			}
			continue
		}

		if err := c.handleWithRetry(ctx, msg, handle); err != nil {
			c.logger.Error("analysis request failed after retries",
				logging.String("document_id", msg.DocumentID.String()),
				logging.Err(err))
		}
		if err := c.commit(ctx, m); err != nil {
			return err
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg AnalysisRequested, handle Handler) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
			c.logger.Warn("retrying analysis request",
				logging.String("document_id", msg.DocumentID.String()),
				logging.Int("attempt", attempt))
		}
		if err = handleSafely(ctx, msg, handle); err == nil {
			return nil
		}
	}
	return err
}

func handleSafely(ctx context.Context, msg AnalysisRequested, handle Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Newf(apperrors.ErrCodeInternal, "handler panic: %v", r)
		}
	}()
	return handle(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to commit kafka offset")
	}
	return nil
}

// Close stops the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
