// Package application 组合目录加载器、会话购物车与抽屉状态，供页面与 JSON 接口使用
package application

import (
	"context"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
)

// CartService 购物车上下文端口
type CartService interface {
	AddToCart(ctx context.Context, sessionID string, product catalogdomain.Product) (cartdomain.Cart, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID int) (cartdomain.Cart, error)
	GetCart(ctx context.Context, sessionID string) (cartdomain.Cart, error)
}

// View 渲染一个会话页面所需的全部状态
type View struct {
	Catalog    catalogdomain.LoadState
	Cart       cartdomain.Cart
	DrawerOpen bool
	TotalItems int
	Subtotal   decimal.Decimal
}

// StorefrontService 店面门面
type StorefrontService struct {
	carts CartService
}

// NewStorefrontService 创建店面门面
func NewStorefrontService(carts CartService) *StorefrontService {
	return &StorefrontService{carts: carts}
}

// View 汇总会话当前状态
func (s *StorefrontService) View(ctx context.Context, sess *Session) (View, error) {
	cart, err := s.carts.GetCart(ctx, sess.ID)
	if err != nil {
		return View{}, err
	}
	return View{
		Catalog:    sess.Loader.State(),
		Cart:       cart,
		DrawerOpen: sess.DrawerOpen(),
		TotalItems: cart.TotalItems(),
		Subtotal:   cart.Subtotal(),
	}, nil
}

// AddToCart 只能添加本会话已加载目录中的商品
// 目录未就绪返回 ErrCatalogNotReady，商品不存在返回 ErrProductNotFound
func (s *StorefrontService) AddToCart(ctx context.Context, sess *Session, productID int) (cartdomain.Cart, error) {
	product, err := sess.Loader.State().Find(productID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	return s.carts.AddToCart(ctx, sess.ID, product)
}

// RemoveFromCart 减少一件，商品不在购物车中时不做任何事
func (s *StorefrontService) RemoveFromCart(ctx context.Context, sess *Session, productID int) (cartdomain.Cart, error) {
	return s.carts.RemoveFromCart(ctx, sess.ID, productID)
}

// GetCart 会话购物车
func (s *StorefrontService) GetCart(ctx context.Context, sess *Session) (cartdomain.Cart, error) {
	return s.carts.GetCart(ctx, sess.ID)
}

// SetDrawer 打开或关闭抽屉
func (s *StorefrontService) SetDrawer(sess *Session, open bool) {
	sess.SetDrawerOpen(open)
}
