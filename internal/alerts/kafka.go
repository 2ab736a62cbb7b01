package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTopic = "stablecoin-risk-alerts"

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures KafkaSink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink publishes alerts as JSON messages keyed by wallet id, so one
// wallet's alerts land on one partition in order.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink creates a sink writing to cfg.Topic.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = defaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 500 * time.Millisecond,
	}
	return newKafkaSinkWithWriter(writer, cfg.Topic), nil
}

func newKafkaSinkWithWriter(w messageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic}
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Publish writes all alerts in one batch.
func (s *KafkaSink) Publish(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	ctx, span := otel.Tracer("stablecoin-risk/alerts").Start(ctx, "alerts.publish",
		trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", s.topic),
		attribute.Int("alerts.count", len(alerts)),
	)

	messages := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		payload, err := json.Marshal(a)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("encode alert %s: %w", a.TxID, err)
		}
		headers := make([]kafka.Header, 0, 2)
		injectKafkaHeaders(ctx, &headers)
		messages = append(messages, kafka.Message{
			Topic:   s.topic,
			Key:     []byte(a.WalletID),
			Value:   payload,
			Headers: headers,
		})
	}

	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish %d alerts: %w", len(alerts), err)
	}
	return nil
}

var _ Sink = (*KafkaSink)(nil)

// kafkaHeaderCarrier adapts message headers to the otel propagator.
type kafkaHeaderCarrier struct {
	headers []kafka.Header
}

func (c kafkaHeaderCarrier) Get(key string) string {
	for _, header := range c.headers {
		if strings.EqualFold(header.Key, key) {
			return string(header.Value)
		}
	}
	return ""
}

func (c *kafkaHeaderCarrier) Set(key, value string) {
	for i := range c.headers {
		if strings.EqualFold(c.headers[i].Key, key) {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, header := range c.headers {
		keys = append(keys, header.Key)
	}
	return keys
}

func injectKafkaHeaders(ctx context.Context, headers *[]kafka.Header) {
	carrier := kafkaHeaderCarrier{headers: *headers}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	*headers = carrier.headers
}
