package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/binhbb2204/GameShelf/pkg/logger"
)

type flakyStore struct {
	down atomic.Bool
}

func (f *flakyStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("database is closed")
	}
	return nil
}

func startServer(t *testing.T, store Pinger) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := New(store, logger.New(logger.ERROR, false, nil), WithCheckInterval(20*time.Millisecond))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func checkStatus(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestHealthFollowsStore(t *testing.T) {
	store := &flakyStore{}
	client := startServer(t, store)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, client, ServiceName))

	store.down.Store(true)
	assert.Eventually(t, func() bool {
		return checkStatus(t, client, ServiceName) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	store.down.Store(false)
	assert.Eventually(t, func() bool {
		return checkStatus(t, client, "") == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestUnknownServiceIsNotFound(t *testing.T) {
	client := startServer(t, &flakyStore{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown.Service"})
	assert.Error(t, err)
}
