// Package messaging 购物车事件发布者实现（日志 / Kafka / AMQP）
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/storefront/internal/cart/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Envelope 投递到消息系统的事件信封
type Envelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func newEnvelope(topic string, event any) Envelope {
	return Envelope{
		EventID:    uuid.New().String(),
		EventType:  topic,
		OccurredAt: time.Now().UTC(),
		Payload:    event,
	}
}

// logPublisher 仅写日志，默认实现
type logPublisher struct{}

// NewLogPublisher 创建日志发布者
func NewLogPublisher() domain.EventPublisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	logger.Info(ctx, "Cart event", "event_type", topic, "session_id", key, "payload", event)
	return nil
}

// KafkaSender 由 pkg/mq.KafkaProducer 实现
type KafkaSender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

type kafkaPublisher struct {
	sender KafkaSender
	topic  string
}

// NewKafkaPublisher 所有购物车事件写入同一 topic，按会话 ID 分区
func NewKafkaPublisher(sender KafkaSender, topic string) domain.EventPublisher {
	return &kafkaPublisher{sender: sender, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.sender.SendMessage(ctx, p.topic, key, newEnvelope(topic, event))
}

// AMQPSender 由 pkg/mq.AMQPProducer 实现
type AMQPSender interface {
	SendMessage(ctx context.Context, queue string, value any) error
}

type amqpPublisher struct {
	sender AMQPSender
	queue  string
}

// NewAMQPPublisher 所有购物车事件投递到同一队列
func NewAMQPPublisher(sender AMQPSender, queue string) domain.EventPublisher {
	return &amqpPublisher{sender: sender, queue: queue}
}

func (p *amqpPublisher) Publish(ctx context.Context, topic string, _ string, event any) error {
	return p.sender.SendMessage(ctx, p.queue, newEnvelope(topic, event))
}
