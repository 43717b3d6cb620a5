package domain

import "context"

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// Publish 发布事件，key 用于分区（会话 ID）
	Publish(ctx context.Context, topic string, key string, event any) error
}
