package domain

import (
	"context"
	"errors"
)

var (
	// ErrEmptySessionID 命令缺少会话 ID
	ErrEmptySessionID = errors.New("session id is required")
	// ErrCartNotFound 会话购物车未开启或已随会话丢弃
	ErrCartNotFound = errors.New("cart not found")
)

// CartRepository 会话购物车仓储
type CartRepository interface {
	// Open 为会话开启空购物车，已开启时不做任何事
	Open(ctx context.Context, sessionID string) error
	// Get 会话不存在时返回空购物车
	Get(ctx context.Context, sessionID string) (Cart, error)
	// Update 在会话自己的锁内执行 fn，购物车未开启或已丢弃时返回 ErrCartNotFound
	Update(ctx context.Context, sessionID string, fn func(Cart) Cart) (Cart, error)
	Delete(ctx context.Context, sessionID string) error
}
