// Package export streams durably appended audit entries to Kafka for
// external compliance tooling. Kafka is an export target, not the source of
// truth: the sink append has already succeeded before an entry reaches the
// exporter, and a Kafka outage never blocks or fails an access decision.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"caregate/internal/audit"
)

// payload is the JSON structure published per audit entry. Field names match
// the persisted compliance schema.
type payload struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	Resource   string `json:"resource_type"`
	ResourceID string `json:"resource_id,omitempty"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// KafkaExporter buffers entries on a channel and produces them to a topic.
// The inbox is bounded; when it is full the entry is dropped and counted,
// mirroring the non-blocking emission of the security pipeline.
type KafkaExporter struct {
	client *kgo.Client
	topic  string
	inbox  chan audit.Entry
	logger *slog.Logger
}

// NewKafkaExporter connects to the given brokers. The caller owns the
// returned exporter and must run it and close it.
func NewKafkaExporter(brokers []string, topic string, logger *slog.Logger) (*KafkaExporter, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaExporter{
		client: client,
		topic:  topic,
		inbox:  make(chan audit.Entry, 1024),
		logger: logger,
	}, nil
}

// EnsureTopic creates the compliance topic if it does not exist yet.
func (e *KafkaExporter) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(e.client)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, e.topic)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Enqueue hands an entry to the export worker without blocking the guard.
func (e *KafkaExporter) Enqueue(entry audit.Entry) {
	select {
	case e.inbox <- entry:
	default:
		if e.logger != nil {
			e.logger.Warn("audit export inbox full, dropping entry", "entry_id", entry.ID)
		}
	}
}

// Run drains the inbox until ctx is cancelled. It keeps background
// processing testable without wiring queue implementations.
func (e *KafkaExporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-e.inbox:
			if err := e.produce(ctx, entry); err != nil {
				if e.logger != nil {
					e.logger.ErrorContext(ctx, "audit export failed",
						"entry_id", entry.ID,
						"error", err,
					)
				}
			}
		}
	}
}

func (e *KafkaExporter) produce(ctx context.Context, entry audit.Entry) error {
	value, err := json.Marshal(payload{
		ID:         entry.ID,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		UserID:     entry.UserID.String(),
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID.String(),
		Outcome:    entry.Outcome,
		Reason:     entry.Reason,
		Detail:     entry.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: e.topic,
		// Key by subject so per-subject ordering survives partitioning.
		Key:   []byte(entry.ResourceID.String()),
		Value: value,
	}
	if err := e.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (e *KafkaExporter) Close() {
	e.client.Close()
}
