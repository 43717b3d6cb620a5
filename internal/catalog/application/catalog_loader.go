package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
)

// ProductLister 目录查询端口
type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Loader 会话级目录加载器：只拉取一次，状态从 loading 单向迁移到 error 或 success
type Loader struct {
	query ProductLister

	once  sync.Once
	done  chan struct{}
	mu    sync.RWMutex
	state domain.LoadState
}

// NewLoader 创建处于 loading 状态的加载器
func NewLoader(query ProductLister) *Loader {
	return &Loader{
		query: query,
		done:  make(chan struct{}),
		state: domain.LoadState{Status: domain.StatusLoading},
	}
}

// Load 启动拉取，重复调用无效果；拉取不受调用方 ctx 取消影响
func (l *Loader) Load(ctx context.Context) {
	l.once.Do(func() {
		go l.run(context.WithoutCancel(ctx))
	})
}

func (l *Loader) run(ctx context.Context) {
	products, err := l.query.ListProducts(ctx)

	l.mu.Lock()
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogFetchFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrCatalogFetchFailed, err)
		}
		l.state = domain.LoadState{Status: domain.StatusError, Err: err}
	} else {
		l.state = domain.LoadState{Status: domain.StatusSuccess, Products: products}
	}
	l.mu.Unlock()

	close(l.done)
}

// State 返回当前状态快照
func (l *Loader) State() domain.LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := l.state
	s.Products = slices.Clone(s.Products)
	return s
}

// Wait 阻塞直到状态离开 loading 或 ctx 结束
func (l *Loader) Wait(ctx context.Context) (domain.LoadState, error) {
	select {
	case <-l.done:
		return l.State(), nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}
