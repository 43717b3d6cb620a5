package application

import (
	"context"
	"time"

	"github.com/wyfcoding/storefront/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	SessionID string
	Product   catalogdomain.Product
}

// RemoveItemCommand 从购物车减少商品命令
type RemoveItemCommand struct {
	SessionID string
	ProductID int
}

// CommandRecorder 记录命令结果（指标）
type CommandRecorder interface {
	RecordCartCommand(op string, err error)
}

// CartCommandService 购物车命令服务，购物车唯一的修改入口
type CartCommandService struct {
	repo      domain.CartRepository
	publisher domain.EventPublisher
	recorder  CommandRecorder
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	repo domain.CartRepository,
	publisher domain.EventPublisher,
	recorder CommandRecorder,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
	}
}

// AddItem 处理添加商品到购物车
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error) {
	cart, err := s.repo.Update(ctx, cmd.SessionID, func(c domain.Cart) domain.Cart {
		return domain.AddToCart(c, cmd.Product)
	})
	s.record("add", err)
	if err != nil {
		return domain.Cart{}, err
	}

	line, _ := cart.Line(cmd.Product.ID)
	event := domain.CartItemAddedEvent{
		SessionID: cmd.SessionID,
		ProductID: cmd.Product.ID,
		Amount:    line.Amount,
		Timestamp: time.Now(),
	}
	s.publish(ctx, domain.TopicCartItemAdded, cmd.SessionID, event)

	return cart, nil
}

// RemoveItem 处理从购物车减少商品，商品不在购物车中时不做任何事
func (s *CartCommandService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) (domain.Cart, error) {
	var present bool
	cart, err := s.repo.Update(ctx, cmd.SessionID, func(c domain.Cart) domain.Cart {
		if _, present = c.Line(cmd.ProductID); !present {
			return c
		}
		return domain.RemoveFromCart(c, cmd.ProductID)
	})
	s.record("remove", err)
	if err != nil {
		return domain.Cart{}, err
	}
	if !present {
		return cart, nil
	}

	line, _ := cart.Line(cmd.ProductID)
	event := domain.CartItemRemovedEvent{
		SessionID: cmd.SessionID,
		ProductID: cmd.ProductID,
		Amount:    line.Amount,
		Timestamp: time.Now(),
	}
	s.publish(ctx, domain.TopicCartItemRemoved, cmd.SessionID, event)

	return cart, nil
}

// publish 发布失败只记录日志，不影响命令结果
func (s *CartCommandService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "Failed to publish cart event", "topic", topic, "session_id", key, "error", err)
	}
}

func (s *CartCommandService) record(op string, err error) {
	if s.recorder != nil {
		s.recorder.RecordCartCommand(op, err)
	}
}
