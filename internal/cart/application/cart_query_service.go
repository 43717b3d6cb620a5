package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/cart/domain"
)

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(
	repo domain.CartRepository,
) *CartQueryService {
	return &CartQueryService{
		repo: repo,
	}
}

// GetCart 根据会话ID获取购物车
func (s *CartQueryService) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.repo.Get(ctx, sessionID)
}

// GetTotalItems 购物车商品总件数
func (s *CartQueryService) GetTotalItems(ctx context.Context, sessionID string) (int, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

// GetSubtotal 购物车总金额
func (s *CartQueryService) GetSubtotal(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Subtotal(), nil
}
