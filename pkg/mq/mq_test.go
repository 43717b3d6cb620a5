package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaProducerSendMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w}

	err := p.SendMessage(context.Background(), "storefront.cart", "session-1", map[string]int{"product_id": 3})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "storefront.cart", w.msgs[0].Topic)
	assert.Equal(t, []byte("session-1"), w.msgs[0].Key)
	assert.JSONEq(t, `{"product_id":3}`, string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducerPropagatesWriteError(t *testing.T) {
	p := &KafkaProducer{writer: &fakeWriter{err: errors.New("broker down")}}
	assert.Error(t, p.SendMessage(context.Background(), "t", "k", "v"))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(KafkaConfig{})
	assert.Error(t, err)
}

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestAMQPProducerDeclaresQueueOnce(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPProducer{channel: ch, queues: make(map[string]struct{})}

	require.NoError(t, p.SendMessage(context.Background(), "cart", map[string]string{"a": "b"}))
	require.NoError(t, p.SendMessage(context.Background(), "cart", map[string]string{"a": "c"}))

	assert.Equal(t, []string{"cart"}, ch.declared)
	assert.Equal(t, []string{"cart", "cart"}, ch.keys)
	require.Len(t, ch.published, 2)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.published[1].Body, &body))
	assert.Equal(t, "c", body["a"])

	require.NoError(t, p.Close())
}
