package grpc_control

import (
	"context"
	"net"
	"testing"
	"time"

	"quote-observer/src/config"
	"quote-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestNewControlServerDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.GrpcPort = 0
	assert.Nil(t, NewControlServer(cfg))
}

func TestHealthService(t *testing.T) {
	cfg := config.Default()
	cfg.GrpcPort = 50051
	s := NewControlServer(cfg)
	require.NotNil(t, s)

	lis := bufconn.Listen(1 << 20)
	go s.Serve(lis)
	defer s.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	s.SetServing(ServicePoller, false)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServicePoller})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestPollerHealthy(t *testing.T) {
	now := time.UnixMilli(100_000)

	assert.True(t, PollerHealthy(models.MCycleResult{}, false, now, time.Minute))
	assert.True(t, PollerHealthy(models.MCycleResult{Finished: 90_000}, true, now, time.Minute))
	assert.False(t, PollerHealthy(models.MCycleResult{Finished: 10_000}, true, now, time.Minute))
	assert.False(t, PollerHealthy(models.MCycleResult{Finished: 99_000, TimedOut: true}, true, now, time.Minute))
}
