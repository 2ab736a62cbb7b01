package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Publish(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSinkWithWriter(w, "alerts-test")

	alerts := []Alert{
		{RunID: "r", TxID: "t1", WalletID: "Wallet 1", RiskScore: 91, Reason: ReasonRiskThreshold},
		{RunID: "r", TxID: "t2", WalletID: "Wallet 2", RiskScore: 20, Sanctioned: true, Reason: ReasonSanctioned},
	}
	require.NoError(t, sink.Publish(context.Background(), alerts))
	require.Len(t, w.messages, 2)

	msg := w.messages[0]
	assert.Equal(t, "alerts-test", msg.Topic)
	assert.Equal(t, "Wallet 1", string(msg.Key))

	var decoded Alert
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "t1", decoded.TxID)
	assert.Equal(t, 91.0, decoded.RiskScore)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.messages[1].Value, &raw))
	assert.Equal(t, "sanctioned", raw["reason"])
	assert.Equal(t, true, raw["sanctioned"])
}

func TestKafkaSink_PublishEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	sink := newKafkaSinkWithWriter(w, "alerts-test")
	assert.NoError(t, sink.Publish(context.Background(), nil))
}

func TestKafkaSink_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	sink := newKafkaSinkWithWriter(&fakeWriter{err: boom}, "alerts-test")

	err := sink.Publish(context.Background(), []Alert{{TxID: "t1", WalletID: "w"}})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaSink_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	sink := newKafkaSinkWithWriter(w, "alerts-test")
	require.NoError(t, sink.Publish(ctx, []Alert{{TxID: "t1", WalletID: "w"}}))

	carrier := kafkaHeaderCarrier{headers: w.messages[0].Headers}
	assert.Contains(t, carrier.Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestKafkaSink_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newKafkaSinkWithWriter(w, "t").Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSink_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{})
	assert.Error(t, err)
}

func TestKafkaHeaderCarrier_SetReplaces(t *testing.T) {
	c := &kafkaHeaderCarrier{}
	c.Set("Key", "a")
	c.Set("key", "b")
	assert.Equal(t, []string{"Key"}, c.Keys())
	assert.Equal(t, "b", c.Get("KEY"))
}
