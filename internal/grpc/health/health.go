package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"aegis-secure/pkg/logger"
)

// ServiceName is the gRPC health service name reported alongside the overall status
const ServiceName = "aegis.v1.IngestionService"

// Pinger is a dependency whose reachability gates serving status
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reporter keeps the gRPC health status in step with dependency pings
type Reporter struct {
	server   *health.Server
	checks   map[string]Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewReporter creates a reporter; nil entries in checks are ignored
func NewReporter(checks map[string]Pinger, interval time.Duration, log *logger.Logger) *Reporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	active := make(map[string]Pinger, len(checks))
	for name, c := range checks {
		if c != nil {
			active[name] = c
		}
	}

	srv := health.NewServer()
	srv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	srv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Reporter{
		server:   srv,
		checks:   active,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
}

// Register attaches the health service to grpcServer
func (r *Reporter) Register(grpcServer *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcServer, r.server)
}

// Server exposes the underlying health server
func (r *Reporter) Server() *health.Server {
	return r.server
}

// Run refreshes the status every interval until ctx is done
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh pings every dependency once and returns whether all are healthy
func (r *Reporter) Refresh(ctx context.Context) bool {
	healthy := true
	for name, c := range r.checks {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			healthy = false
			r.logger.Warn().Err(err).Str("dependency", name).Msg("health check failed")
		}
	}

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !healthy {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return healthy
}
