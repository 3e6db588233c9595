package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "query-events")

	err := p.Publish(context.Background(),
		Record{Key: "run-1", Value: map[string]int{"hits": 1}},
		Record{Key: "run-1", Value: map[string]int{"hits": 0}},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"hits":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "content-type", w.msgs[0].Headers[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishNothing(t *testing.T) {
	w := &recordingWriter{err: errors.New("unreachable")}
	assert.NoError(t, newProducer(w, "t").Publish(context.Background()))
}

func TestPublishErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newProducer(w, "query-events")

	err := p.Publish(context.Background(), Record{Key: "k", Value: 1})
	assert.ErrorIs(t, err, w.err)

	err = newProducer(&recordingWriter{}, "t").Publish(context.Background(), Record{Key: "k", Value: make(chan int)})
	assert.ErrorContains(t, err, "marshaling")
}

func TestNewProducerUsesQueryEventsTopic(t *testing.T) {
	p := NewProducer(config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topics:  config.KafkaTopics{QueryEvents: "query-events"},
	})
	defer p.Close()
	assert.Equal(t, "query-events", p.topic)
	assert.Equal(t, "query-events", p.writer.(*kafka.Writer).Topic)
}
