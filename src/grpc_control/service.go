package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service names reported through grpc.health.v1. The empty name is the
// overall server status.
const (
	ServiceStore  = "quote_observer.Store"
	ServicePoller = "quote_observer.Poller"
)

// ControlServer exposes the standard gRPC health service and server reflection.
type ControlServer struct {
	Addr   string
	Logger *logger.Logger

	server *grpc.Server
	health *health.Server
}

// -----------------------------------------------------------------------------

// NewControlServer registers health and reflection. It returns nil when the
// gRPC port is 0.
func NewControlServer(cfg *models.MConfig) *ControlServer {
	if cfg.GrpcPort == 0 {
		return nil
	}

	s := &ControlServer{
		Addr:   fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort),
		Logger: logger.NewLogger("ControlServer"),
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceStore, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServicePoller, healthpb.HealthCheckResponse_SERVING)
	return s
}

// -----------------------------------------------------------------------------

// Start listens on Addr and serves until Stop.
func (s *ControlServer) Start() error {
	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *ControlServer) Serve(lis net.Listener) error {
	s.Logger.Info("Starting gRPC control server on %s", lis.Addr())
	return s.server.Serve(lis)
}

// -----------------------------------------------------------------------------

// SetServing updates the status of one service.
func (s *ControlServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// -----------------------------------------------------------------------------

// WatchPoller refreshes the poller status every interval until ctx is done.
// The poller is healthy while its last cycle finished within maxAge and did
// not time out.
func (s *ControlServer) WatchPoller(ctx context.Context, poller interfaces.IPollStatus, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			last, ok := poller.LastCycle()
			next := PollerHealthy(last, ok, now, maxAge)
			if next != healthy {
				s.Logger.Warning("Poller health changed: serving=%v", next)
				healthy = next
			}
			s.SetServing(ServicePoller, next)
		}
	}
}

// PollerHealthy decides the poller status from its last cycle. Before the
// first cycle the poller counts as healthy.
func PollerHealthy(last models.MCycleResult, ok bool, now time.Time, maxAge time.Duration) bool {
	if !ok {
		return true
	}
	if last.TimedOut {
		return false
	}
	return now.Sub(time.UnixMilli(last.Finished)) <= maxAge
}

// -----------------------------------------------------------------------------

// Stop flips every service to NOT_SERVING and drains in-flight RPCs.
func (s *ControlServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
