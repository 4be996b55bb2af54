package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// Kafka produces alerts to a Kafka topic with a single write attempt.
type Kafka struct {
	writer *kafkago.Writer
}

func NewKafka(cfg *config.Config) *Kafka {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  1,
	}
	if cfg.KafkaTLS {
		w.Transport = &kafkago.Transport{TLS: &tls.Config{MinVersion: tls.VersionTLS12}}
	}
	return &Kafka{writer: w}
}

func (k *Kafka) Send(ctx context.Context, key string, payload []byte) error {
	if err := k.writer.WriteMessages(ctx, buildMessage(key, payload, time.Now())); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func buildMessage(key string, payload []byte, at time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "command", Value: []byte(domain.AlertCommand)},
			{Key: "content_type", Value: []byte("application/json")},
			{Key: "published_at", Value: []byte(at.UTC().Format(time.RFC3339))},
		},
	}
}
