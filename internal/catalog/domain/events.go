package domain

import (
	"context"
	"time"
)

const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// CatalogFetchedEvent 一次目录查询完成事件
type CatalogFetchedEvent struct {
	Source    string        `json:"source"`
	CacheUsed bool          `json:"cache_used"`
	Success   bool          `json:"success"`
	Count     int           `json:"count"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// FetchObserver 订阅目录查询结果（指标、健康检查）
type FetchObserver interface {
	OnCatalogFetched(ctx context.Context, event CatalogFetchedEvent)
}
