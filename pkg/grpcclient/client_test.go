package grpcclient

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCheckHealth(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("storefront", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := NewClient(ClientConfig{Target: lis.Addr().String(), ConnTimeout: 1, RequestTimeout: 2})
	require.NoError(t, err)
	defer conn.Close()

	st, err := CheckHealth(context.Background(), conn, "storefront")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	hs.SetServingStatus("storefront", healthpb.HealthCheckResponse_SERVING)
	st, err = CheckHealth(context.Background(), conn, "storefront")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	_, err = CheckHealth(context.Background(), conn, "unknown")
	assert.Error(t, err)
}
