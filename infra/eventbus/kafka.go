package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig holds configuration for the Kafka event bus.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Async        bool
	BatchTimeout time.Duration
}

type envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// messageWriter is the part of *kafka.Writer the bus uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventBus publishes every event to one topic and also dispatches it to
// local handlers.
type KafkaEventBus struct {
	writer messageWriter
	topic  string
	local  *MemoryEventBus
	logger *slog.Logger
}

// NewWithKafka creates a Kafka-backed event bus.
func NewWithKafka(cfg KafkaConfig, logger *slog.Logger) (*KafkaEventBus, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: no brokers configured")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka event bus: no topic configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		Async:                  cfg.Async,
		BatchTimeout:           cfg.BatchTimeout,
	}
	return newKafkaEventBus(writer, cfg.Topic, logger), nil
}

func newKafkaEventBus(w messageWriter, topic string, logger *slog.Logger) *KafkaEventBus {
	return &KafkaEventBus{
		writer: w,
		topic:  topic,
		local:  NewWithMemory(logger),
		logger: logger.With("bus", "kafka", "topic", topic),
	}
}

// Register registers a local handler for a specific event type.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.local.Register(eventType, handler)
}

// Emit writes the event to Kafka, then runs local handlers.
func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	msg, err := toMessage(event, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		b.logger.Error("publish failed", "type", event.Type(), "error", err)
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return b.local.Emit(ctx, event)
}

// Close flushes pending messages and closes the writer.
func (b *KafkaEventBus) Close() error {
	return b.writer.Close()
}

// partitionKeyer is implemented by events that should stay ordered relative
// to each other, such as everything touching one account.
type partitionKeyer interface {
	PartitionKey() string
}

func toMessage(event eventbus.Event, now time.Time) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka event bus: marshal %s: %w", event.Type(), err)
	}
	value, err := json.Marshal(envelope{Type: event.Type(), OccurredAt: now, Payload: payload})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka event bus: marshal envelope: %w", err)
	}
	key := event.Type()
	if k, ok := event.(partitionKeyer); ok {
		key = k.PartitionKey()
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type())},
		},
	}, nil
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
