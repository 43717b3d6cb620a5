// Package grpc 暴露 grpc.health.v1，服务状态跟随共享目录查询结果
package grpc

import (
	"context"

	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthReporter 目录查询观察者，维护 gRPC 健康状态
type HealthReporter struct {
	server  *health.Server
	service string
}

var _ catalogdomain.FetchObserver = (*HealthReporter)(nil)

// NewHealthReporter 注册健康服务；在首次成功拉取目录前为 NOT_SERVING
func NewHealthReporter(s *grpc.Server, service string) *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return &HealthReporter{server: hs, service: service}
}

// OnCatalogFetched 实现 catalogdomain.FetchObserver
func (h *HealthReporter) OnCatalogFetched(ctx context.Context, event catalogdomain.CatalogFetchedEvent) {
	status := healthpb.HealthCheckResponse_SERVING
	if !event.Success {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus(h.service, status)
	logger.Debug(ctx, "Health status updated", "service", h.service, "status", status.String())
}

// Check 查询当前状态
func (h *HealthReporter) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: h.service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Shutdown 将所有服务置为 NOT_SERVING
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
