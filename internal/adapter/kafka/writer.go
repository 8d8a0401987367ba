package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/config"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes accepted hazard reports to a Kafka topic.
// It implements submit.Sink.
type Writer struct {
	writer  *kafkago.Writer
	brokers []string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured reports topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, brokers: cfg.KafkaBrokers, logger: logger}
}

// Deliver publishes one submission keyed by its report ID. Encoding failures
// are not retryable and surface as validation errors.
func (w *Writer) Deliver(ctx context.Context, sub domain.Submission) error {
	msg, err := serializeToMessage(sub)
	if err != nil {
		return errors.Join(domain.ErrValidationFailed, err)
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report %s: %w", sub.Receipt.ReportID, err)
	}
	w.logger.Debug("report published", "report_id", sub.Receipt.ReportID, "topic", w.writer.Topic)
	return nil
}

// CheckReadiness dials the first broker.
func (w *Writer) CheckReadiness(ctx context.Context) error {
	if len(w.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", w.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	return conn.Close()
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Submission into a Kafka message.
func serializeToMessage(sub domain.Submission) (kafkago.Message, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sub.Receipt.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazard_type", Value: []byte(sub.Receipt.Type)},
			{Key: "severity", Value: []byte(sub.Receipt.Severity)},
			{Key: "submitted_at", Value: []byte(sub.Receipt.SubmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
