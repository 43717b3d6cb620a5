package application

import (
	"context"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
)

// CatalogApplicationService 目录上下文门面
type CatalogApplicationService struct {
	Query *CatalogQueryService
}

// NewCatalogApplicationService 创建门面
func NewCatalogApplicationService(query *CatalogQueryService) *CatalogApplicationService {
	return &CatalogApplicationService{Query: query}
}

// NewLoader 为一个会话创建加载器，共享同一查询缓存
func (s *CatalogApplicationService) NewLoader() *Loader {
	return NewLoader(s.Query)
}

// ListProducts 直接查询商品列表
func (s *CatalogApplicationService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Query.ListProducts(ctx)
}
