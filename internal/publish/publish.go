package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bourse/internal/common"

	"github.com/segmentio/kafka-go"
)

// Sink receives the agreements formed each day.
type Sink interface {
	Publish(ctx context.Context, agreements []common.Agreement) error
	Close() error
}

// Discard drops every agreement.
type Discard struct{}

func (Discard) Publish(context.Context, []common.Agreement) error { return nil }
func (Discard) Close() error                                      { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes agreements to a Kafka topic keyed by agreement uuid.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, agreements []common.Agreement) error {
	if len(agreements) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(agreements))
	for i, agreement := range agreements {
		msg, err := message(agreement)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish agreements: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

func message(agreement common.Agreement) (kafka.Message, error) {
	value, err := json.Marshal(agreement)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal agreement %s: %w", agreement.UUID, err)
	}
	return kafka.Message{Key: []byte(agreement.UUID), Value: value}, nil
}
