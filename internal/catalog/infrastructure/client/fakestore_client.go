// Package client 远程商品目录 HTTP 客户端
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
)

// Config 客户端配置
type Config struct {
	BaseURL      string
	ProductsPath string
	Timeout      time.Duration
}

// FakeStoreClient 商品列表接口客户端，不重试
type FakeStoreClient struct {
	http *resty.Client
	path string
}

var _ domain.CatalogSource = (*FakeStoreClient)(nil)

// NewFakeStoreClient 创建客户端
func NewFakeStoreClient(cfg Config) *FakeStoreClient {
	path := cfg.ProductsPath
	if path == "" {
		path = "/products"
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &FakeStoreClient{http: c, path: path}
}

// ListProducts 拉取商品列表，任何失败都归并为 ErrCatalogFetchFailed
func (c *FakeStoreClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFetchFailed, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrCatalogFetchFailed, resp.StatusCode())
	}

	var products []domain.Product
	if err := json.Unmarshal(resp.Body(), &products); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrCatalogFetchFailed, err)
	}
	if products == nil {
		return nil, fmt.Errorf("%w: empty body", domain.ErrCatalogFetchFailed)
	}
	return products, nil
}
