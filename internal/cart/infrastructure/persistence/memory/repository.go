// Package memory 进程内会话购物车仓储，随会话一起丢弃
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/storefront/internal/cart/domain"
)

type cartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.SessionCart
}

// NewCartRepository 创建内存仓储
func NewCartRepository() domain.CartRepository {
	return &cartRepository{carts: make(map[string]*domain.SessionCart)}
}

func (r *cartRepository) Open(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[sessionID]; !ok {
		r.carts[sessionID] = domain.NewSessionCart()
	}
	return nil
}

func (r *cartRepository) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	r.mu.RLock()
	sc, ok := r.carts[sessionID]
	r.mu.RUnlock()

	if !ok {
		return domain.NewCart(), nil
	}
	return sc.Snapshot(), nil
}

// Update 不会隐式创建购物车，已丢弃会话的命令不会留下无主购物车
func (r *cartRepository) Update(_ context.Context, sessionID string, fn func(domain.Cart) domain.Cart) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrEmptySessionID
	}

	r.mu.RLock()
	sc, ok := r.carts[sessionID]
	r.mu.RUnlock()
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return sc.Apply(fn), nil
}

func (r *cartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}
