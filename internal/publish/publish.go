// Package publish pushes synced entities onto a Kafka topic as JSON
// messages, for pipelines that want to consume scrapes as a feed.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic is used when neither the flag nor MITRE_CLI_TOPIC is set.
const DefaultTopic = "attck-entities"

// Publisher writes entity records to one topic.
type Publisher struct {
	writer *kafka.Writer
}

// New returns a Publisher for the given broker and topic.
func New(broker, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// TopicFromEnv resolves the topic: explicit value, then MITRE_CLI_TOPIC,
// then DefaultTopic.
func TopicFromEnv(topic string) string {
	if topic != "" {
		return topic
	}
	if env := os.Getenv("MITRE_CLI_TOPIC"); env != "" {
		return env
	}
	return DefaultTopic
}

// Publish JSON-encodes v and writes it keyed by the entity id.
func (p *Publisher) Publish(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publish: marshaling %s: %w", key, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("publish: writing %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
