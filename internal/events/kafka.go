package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

var (
	ErrInvalidBroker = errors.New("invalid broker address: broker cannot be empty")
	ErrInvalidTopic  = errors.New("invalid topic name: topic cannot be empty")
	ErrDelivery      = errors.New("message delivery failed")
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      string
	Topic        string
	FlushTimeout time.Duration
}

func (c KafkaConfig) Validate() error {
	if c.Brokers == "" {
		return ErrInvalidBroker
	}
	if c.Topic == "" {
		return ErrInvalidTopic
	}
	return nil
}

// KafkaPublisher sends each event to a topic, keyed by aggregate id so the
// events of one order stay in one partition and keep their order.
type KafkaPublisher struct {
	cfg    KafkaConfig
	client *kafka.Producer
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.FlushTimeout == 0 {
		cfg.FlushTimeout = 5 * time.Second
	}
	client, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaPublisher{cfg: cfg, client: client}, nil
}

// Publish blocks until the broker acknowledges the message or ctx ends.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	topic := p.cfg.Topic
	delivery := make(chan kafka.Event, 1)
	err := p.client.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatUint(uint64(msg.AggregateID), 10)),
		Value:          msg.Payload,
		Timestamp:      msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.ID)},
			{Key: "event_type", Value: []byte(msg.Type)},
		},
	}, delivery)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("%w: unexpected event %v", ErrDelivery, ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, m.TopicPartition.Error)
		}
		return nil
	}
}

// Close flushes pending messages and releases the producer.
func (p *KafkaPublisher) Close() error {
	remaining := p.client.Flush(int(p.cfg.FlushTimeout.Milliseconds()))
	p.client.Close()
	if remaining > 0 {
		return fmt.Errorf("flush timed out with %d messages remaining", remaining)
	}
	return nil
}
