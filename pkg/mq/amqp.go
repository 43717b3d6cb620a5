package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"github.com/wyfcoding/storefront/pkg/logger"
)

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPProducer 通过默认 exchange 直接投递到队列
type AMQPProducer struct {
	conn    *amqp.Connection
	mu      sync.Mutex
	channel amqpChannel
	queues  map[string]struct{}
}

// NewAMQPProducer 建立连接与 channel
func NewAMQPProducer(url string) (*AMQPProducer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to establish RabbitMQ connection: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to establish RabbitMQ channel: %w", err)
	}

	logger.Info(context.Background(), "AMQP producer connected")
	return &AMQPProducer{conn: conn, channel: ch, queues: make(map[string]struct{})}, nil
}

// SendMessage 将 value 编码为 JSON 并发布到 queue
func (p *AMQPProducer) SendMessage(ctx context.Context, queue string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	// amqp.Channel 不是并发安全的
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.queues[queue]; !ok {
		if _, err := p.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		p.queues[queue] = struct{}{}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if err := p.channel.Publish("", queue, false, false, msg); err != nil {
		logger.Error(ctx, "Failed to publish AMQP message", "queue", queue, "error", err)
		return fmt.Errorf("failed to publish message to queue: %w", err)
	}
	return nil
}

// Close 关闭 channel 与连接
func (p *AMQPProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		logger.Warn(context.Background(), "Failed to close AMQP channel", "error", err)
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
