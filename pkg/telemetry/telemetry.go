// Package telemetry publishes a record of each completed query to an
// evidence-trail topic, independent of the request/response path, so the
// pipeline's routing and confidence decisions can be audited after the
// fact. Grounded on h3-spatial-cache's use of github.com/IBM/sarama for its
// invalidation event bus (pkg/invalidation/kafka), generalized from a
// consumer to a producer.
package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// EvidenceRecord captures one completed query for the audit trail: which
// stages ran, which backends were used, and the final confidence/error
// outcome. Field names mirror the evidence trail described in SPEC_FULL.md.
type EvidenceRecord struct {
	RequestID   string            `json:"request_id"`
	Query       string            `json:"query"`
	Intent      string            `json:"intent,omitempty"`
	Stages      []string          `json:"stages"`
	Backends    map[string]string `json:"backends,omitempty"`
	ErrorType   string            `json:"error_type,omitempty"`
	Confidence  float64           `json:"confidence,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Sink publishes completed-request evidence. Implementations must not block
// the request path on delivery failure.
type Sink interface {
	Publish(ctx context.Context, rec EvidenceRecord)
	Close() error
}

// noopSink is used when KAFKA_BROKERS is not configured.
type noopSink struct{}

func (noopSink) Publish(context.Context, EvidenceRecord) {}
func (noopSink) Close() error                            { return nil }

// NoopSink is the sink used when Kafka is not configured.
var NoopSink Sink = noopSink{}

// kafkaSink publishes evidence records to a fixed topic via a sarama async
// producer. Publish never blocks the caller past enqueueing the message;
// producer errors are logged, not returned, since evidence loss must never
// fail a user-facing request.
type kafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaSink dials the given brokers and returns a Sink that publishes to
// topic. Returns an error if the producer cannot be constructed; callers
// should fall back to NoopSink on error rather than fail startup.
func NewKafkaSink(brokers []string, topic string) (Sink, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	sink := &kafkaSink{producer: producer, topic: topic, logger: slog.Default().With("component", "telemetry.kafka")}
	go sink.drainErrors()
	return sink, nil
}

func (s *kafkaSink) drainErrors() {
	for perr := range s.producer.Errors() {
		s.logger.Warn("evidence record publish failed", "error", perr.Err)
	}
}

func (s *kafkaSink) Publish(_ context.Context, rec EvidenceRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("failed to marshal evidence record", "error", err, "request_id", rec.RequestID)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(rec.RequestID),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case s.producer.Input() <- msg:
	default:
		s.logger.Warn("evidence producer input full, dropping record", "request_id", rec.RequestID)
	}
}

func (s *kafkaSink) Close() error {
	return s.producer.Close()
}
