package domain

import "time"

const (
	TopicCartItemAdded   = "cart.item.added"
	TopicCartItemRemoved = "cart.item.removed"
)

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	SessionID string    `json:"session_id"`
	ProductID int       `json:"product_id"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemRemovedEvent 购物车减少/移除商品事件，Amount 为 0 表示整行移除
type CartItemRemovedEvent struct {
	SessionID string    `json:"session_id"`
	ProductID int       `json:"product_id"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
