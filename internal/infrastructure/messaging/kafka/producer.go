package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Producer publishes analysis workflow events.
type Producer struct {
	writer writerAPI
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

// writerAPI abstracts kafka.Writer for testing.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewProducer creates a Kafka producer. Messages hash-balance on the
// document ID key.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers are required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{writer: writer, logger: log.Named("kafka.producer")}, nil
}

// PublishAnalysisRequested enqueues an analysis request.
func (p *Producer) PublishAnalysisRequested(ctx context.Context, msg AnalysisRequested) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.RequestedAt.IsZero() {
		msg.RequestedAt = time.Now().UTC()
	}
	return p.publish(ctx, TopicAnalysisRequested, msg.DocumentID, msg)
}

// PublishAnalysisCompleted announces a finished analysis run.
func (p *Producer) PublishAnalysisCompleted(ctx context.Context, msg AnalysisCompleted) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.CompletedAt.IsZero() {
		msg.CompletedAt = time.Now().UTC()
	}
	return p.publish(ctx, TopicAnalysisCompleted, msg.DocumentID, msg)
}

func (p *Producer) publish(ctx context.Context, topic string, documentID uuid.UUID, payload interface{}) error {
	if p.closed.Load() {
		return apperrors.New(apperrors.ErrCodeInternal, "kafka producer is closed")
	}
	key, value, err := EncodeMessage(documentID, payload)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.failed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to publish kafka message")
	}

	p.sent.Add(1)
	p.logger.Debug("published message",
		logging.String("topic", topic),
		logging.String("document_id", documentID.String()))
	return nil
}

// Stats returns sent and failed message counts.
func (p *Producer) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close flushes and closes the writer; safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
