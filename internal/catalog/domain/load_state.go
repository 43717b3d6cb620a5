package domain

import "errors"

var (
	// ErrCatalogFetchFailed 任何原因导致的目录拉取失败（网络、非 2xx、响应体无法解析）
	ErrCatalogFetchFailed = errors.New("catalog fetch failed")
	// ErrCatalogNotReady 目录仍在加载或加载失败
	ErrCatalogNotReady = errors.New("catalog not ready")
	// ErrProductNotFound 商品不在已加载的目录中
	ErrProductNotFound = errors.New("product not found")
)

// LoadStatus 目录加载状态，三者互斥
type LoadStatus string

const (
	StatusLoading LoadStatus = "loading"
	StatusError   LoadStatus = "error"
	StatusSuccess LoadStatus = "success"
)

// LoadState 某个会话的目录加载快照
type LoadState struct {
	Status   LoadStatus
	Products []Product
	Err      error
}

// Find 在已加载的目录中按 ID 查找商品
func (s LoadState) Find(id int) (Product, error) {
	if s.Status != StatusSuccess {
		return Product{}, ErrCatalogNotReady
	}
	for _, p := range s.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}
