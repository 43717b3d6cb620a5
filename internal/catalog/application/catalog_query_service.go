package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ProductsQueryKey 商品列表查询在缓存中的 key
const ProductsQueryKey = "products"

// FetchObserverFunc 函数形式的 FetchObserver
type FetchObserverFunc func(ctx context.Context, event domain.CatalogFetchedEvent)

// OnCatalogFetched 实现 domain.FetchObserver
func (f FetchObserverFunc) OnCatalogFetched(ctx context.Context, event domain.CatalogFetchedEvent) {
	f(ctx, event)
}

// CatalogQueryService 商品目录查询服务，缓存在远程数据源之前
type CatalogQueryService struct {
	source    domain.CatalogSource
	cache     domain.QueryCache
	ttl       time.Duration
	group     singleflight.Group
	observers []domain.FetchObserver
}

// NewCatalogQueryService 创建商品目录查询服务实例，cache 可为 nil
func NewCatalogQueryService(
	source domain.CatalogSource,
	cache domain.QueryCache,
	ttl time.Duration,
	observers ...domain.FetchObserver,
) *CatalogQueryService {
	return &CatalogQueryService{
		source:    source,
		cache:     cache,
		ttl:       ttl,
		observers: observers,
	}
}

// AddObserver 追加订阅者，需在首次查询前调用
func (s *CatalogQueryService) AddObserver(o domain.FetchObserver) {
	s.observers = append(s.observers, o)
}

// ListProducts 列出商品；失败结果不会写入缓存
func (s *CatalogQueryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		products, ok, err := s.cache.Get(ctx, ProductsQueryKey)
		if err != nil {
			logger.Warn(ctx, "Catalog cache lookup failed, falling back to remote", "error", err)
		}
		if ok {
			s.notify(ctx, domain.CatalogFetchedEvent{
				Source:    domain.SourceCache,
				CacheUsed: true,
				Success:   true,
				Count:     len(products),
				Timestamp: time.Now(),
			})
			return slices.Clone(products), nil
		}
	}

	v, err, _ := s.group.Do(ProductsQueryKey, func() (any, error) {
		return s.fetchRemote(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Product)), nil
}

func (s *CatalogQueryService) fetchRemote(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	products, err := s.source.ListProducts(ctx)
	event := domain.CatalogFetchedEvent{
		Source:    domain.SourceRemote,
		CacheUsed: s.cache != nil,
		Success:   err == nil,
		Count:     len(products),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
	s.notify(ctx, event)

	if err != nil {
		logger.Error(ctx, "Failed to fetch catalog", "error", err, "duration", event.Duration)
		if !errors.Is(err, domain.ErrCatalogFetchFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrCatalogFetchFailed, err)
		}
		return nil, err
	}

	logger.Info(ctx, "Catalog fetched", "count", len(products), "duration", event.Duration)

	if s.cache != nil {
		if err := s.cache.Set(ctx, ProductsQueryKey, products, s.ttl); err != nil {
			logger.Warn(ctx, "Failed to store catalog in cache", "error", err)
		}
	}
	return products, nil
}

func (s *CatalogQueryService) notify(ctx context.Context, event domain.CatalogFetchedEvent) {
	for _, o := range s.observers {
		o.OnCatalogFetched(ctx, event)
	}
}
