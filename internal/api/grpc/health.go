package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"branchrent-backend/internal/logger"
)

// ReservationServiceName is the service name probes may ask about in
// addition to the empty overall name.
const ReservationServiceName = "branchrent.v1.ReservationService"

// HealthServer reports SERVING while the store answers pings.
type HealthServer struct {
	server   *health.Server
	ping     func(ctx context.Context) error
	interval time.Duration
}

func NewHealthServer(ping func(ctx context.Context) error, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	hs := &HealthServer{server: health.NewServer(), ping: ping, interval: interval}
	hs.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ReservationServiceName, status)
}

// Probe pings the store once and updates the serving status.
func (h *HealthServer) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		logger.Warn("Health probe failed", "error", err)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Run probes until ctx is done, then marks the service as shutting down.
func (h *HealthServer) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

func (h *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	return h.server.Check(ctx, req)
}

// NewServer builds the gRPC listener that carries the health service.
func NewServer(hs *HealthServer) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(LoggingUnaryInterceptor()))
	healthpb.RegisterHealthServer(s, hs.server)
	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
