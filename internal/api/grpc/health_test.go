package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func check(t *testing.T, hs *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServer_FollowsPing(t *testing.T) {
	var pingErr error
	hs := NewHealthServer(func(context.Context) error { return pingErr }, time.Second)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ""))

	hs.Probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, hs, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, hs, ReservationServiceName))

	pingErr = errors.New("connection refused")
	hs.Probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ""))
}

func TestHealthServer_UnknownService(t *testing.T) {
	hs := NewHealthServer(func(context.Context) error { return nil }, time.Second)
	_, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthServer_RunStopsOnCancel(t *testing.T) {
	hs := NewHealthServer(func(context.Context) error { return nil }, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hs.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return check(t, hs, "") == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ""))
}

func TestLoggingUnaryInterceptor_PassesThrough(t *testing.T) {
	icpt := LoggingUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := icpt(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	want := status.Error(codes.Unavailable, "down")
	_, err = icpt(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	assert.Equal(t, want, err)
}

func TestNewServer_RegistersHealth(t *testing.T) {
	hs := NewHealthServer(func(context.Context) error { return nil }, time.Second)
	s := NewServer(hs)
	defer s.Stop()
	_, ok := s.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]
	assert.True(t, ok)
}
