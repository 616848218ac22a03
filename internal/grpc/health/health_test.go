package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health/grpc_health_v1"

	"aegis-secure/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func status(t *testing.T, r *Reporter, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := r.Server().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestRefreshFlipsServingStatus(t *testing.T) {
	var down bool
	r := NewReporter(map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error {
			if down {
				return errors.New("connection refused")
			}
			return nil
		}),
		"redis": nil,
	}, time.Second, logger.NewNop())

	require.True(t, r.Refresh(context.Background()))
	require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, status(t, r, ""))

	down = true
	require.False(t, r.Refresh(context.Background()))
	require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, status(t, r, ServiceName))
}

func TestRunStopsWithContext(t *testing.T) {
	r := NewReporter(nil, time.Millisecond, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
