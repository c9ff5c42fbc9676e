package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
)

// DefaultTopic receives job events when no topic is configured.
const DefaultTopic = "transcoder.jobs"

// messageWriter is the part of kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON keyed by job id, so all events of one job
// land on the same partition in order.
type Kafka struct {
	writer messageWriter
	topic  string
}

// NewKafka builds a publisher for a comma-separated broker list.
func NewKafka(brokers, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}

	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	logging.Info("Publishing job events to Kafka topic %s (%s)", topic, strings.Join(addrs, ","))
	return &Kafka{writer: writer, topic: topic}
}

// Publish writes ev and counts failures.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		metrics.EventsPublishErrors.Inc()
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Topic: k.topic,
		Key:   []byte(ev.JobID),
		Value: value,
		Time:  ev.Time,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublishErrors.Inc()
		return fmt.Errorf("failed to publish event for job %s: %w", ev.JobID, err)
	}
	return nil
}

// Close flushes pending writes.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
