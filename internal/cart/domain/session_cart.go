package domain

import "sync"

// SessionCart 某个会话独占的购物车状态，命令串行执行
type SessionCart struct {
	mu   sync.Mutex
	cart Cart
}

// NewSessionCart 创建空的会话购物车
func NewSessionCart() *SessionCart {
	return &SessionCart{cart: NewCart()}
}

// Apply 在锁内执行状态迁移并返回迁移后的购物车
func (s *SessionCart) Apply(fn func(Cart) Cart) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = fn(s.cart)
	return s.cart
}

// Snapshot 当前购物车
func (s *SessionCart) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart
}
