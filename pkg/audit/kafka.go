package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
)

// KafkaSink streams audit events to a Kafka topic so downstream consumers
// (e.g. the review UI) can follow a run live. Events are keyed by stage so
// per-stage ordering is preserved within a partition.
type KafkaSink struct {
	writer *kafka.Writer
	seq    atomic.Uint64
	once   sync.Once
}

// NewKafkaSink creates a sink publishing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink requires a topic")
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	return &KafkaSink{writer: w}, nil
}

func (s *KafkaSink) Append(ctx context.Context, e Event) error {
	stamp(&e, s.seq.Add(1))

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Stage),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("publishing audit event: %w", err)
	}

	return nil
}

func (s *KafkaSink) Close() error {
	var err error
	s.once.Do(func() {
		err = s.writer.Close()
	})
	return err
}
