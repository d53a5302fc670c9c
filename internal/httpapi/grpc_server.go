package httpapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"intelhub.dev/internal/obs"
)

// HealthServer publishes readiness through the standard gRPC health service.
type HealthServer struct {
	*health.Server
	readiness readinessChecker
}

// NewHealthServer creates a health service that starts NOT_SERVING until
// the first Refresh.
func NewHealthServer(r readinessChecker) *HealthServer {
	if r == nil {
		r = ReadyProbe{}
	}
	h := &HealthServer{Server: health.NewServer(), readiness: r}
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Refresh evaluates readiness and updates both the overall and the named
// service status.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := h.readiness.Check(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		obs.Warn("readiness_failed", map[string]any{"error": err.Error()})
	}
	obs.SetReady(st == healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus("", st)
	h.SetServingStatus(serviceName, st)
	return st
}

// Run refreshes readiness every interval until ctx ends, then marks the
// service as shutting down.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			h.Refresh(checkCtx)
			cancel()
		}
	}
}

// NewGRPCServer builds a gRPC server with the health and reflection
// services registered.
func NewGRPCServer(h *HealthServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary)}, opts...)
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, h.Server)
	reflection.Register(srv)
	return srv
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	obs.LogRequest(map[string]any{
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"level":       "info",
		"msg":         "grpc_complete",
		"method":      info.FullMethod,
		"code":        status.Code(err).String(),
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
	return resp, err
}
