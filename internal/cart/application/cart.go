package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
)

// CartApplicationService 购物车服务门面，整合命令服务和查询服务
type CartApplicationService struct {
	repo           domain.CartRepository
	commandService *CartCommandService
	queryService   *CartQueryService
}

// NewCartApplicationService 创建购物车服务门面实例，recorder 可为 nil
func NewCartApplicationService(
	repo domain.CartRepository,
	publisher domain.EventPublisher,
	recorder CommandRecorder,
) *CartApplicationService {
	return &CartApplicationService{
		repo:           repo,
		commandService: NewCartCommandService(repo, publisher, recorder),
		queryService:   NewCartQueryService(repo),
	}
}

// AddToCart 处理添加商品到购物车
func (s *CartApplicationService) AddToCart(ctx context.Context, sessionID string, product catalogdomain.Product) (domain.Cart, error) {
	return s.commandService.AddItem(ctx, AddItemCommand{
		SessionID: sessionID,
		Product:   product,
	})
}

// RemoveFromCart 处理从购物车减少商品
func (s *CartApplicationService) RemoveFromCart(ctx context.Context, sessionID string, productID int) (domain.Cart, error) {
	return s.commandService.RemoveItem(ctx, RemoveItemCommand{
		SessionID: sessionID,
		ProductID: productID,
	})
}

// GetCart 根据会话ID获取购物车
func (s *CartApplicationService) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.queryService.GetCart(ctx, sessionID)
}

// GetTotalItems 购物车商品总件数
func (s *CartApplicationService) GetTotalItems(ctx context.Context, sessionID string) (int, error) {
	return s.queryService.GetTotalItems(ctx, sessionID)
}

// GetSubtotal 购物车总金额
func (s *CartApplicationService) GetSubtotal(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	return s.queryService.GetSubtotal(ctx, sessionID)
}

// OpenCart 会话创建时开启空购物车
func (s *CartApplicationService) OpenCart(ctx context.Context, sessionID string) error {
	return s.repo.Open(ctx, sessionID)
}

// DiscardCart 会话过期时丢弃购物车
func (s *CartApplicationService) DiscardCart(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}
