package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is reported alongside the overall ("") health status.
const ServiceName = "gameshelf.Library"

const defaultCheckInterval = 10 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes grpc.health.v1.Health whose status follows the store.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	store    Pinger
	logger   *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

type Option func(*Server)

func WithCheckInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

func New(store Pinger, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		health:   health.NewServer(),
		store:    store,
		logger:   log,
		interval: defaultCheckInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.check()
	s.mu.Lock()
	if !s.stopped {
		s.wg.Add(1)
		go s.watch()
	}
	s.mu.Unlock()

	s.logger.Info("grpc_server_listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.health.Shutdown()
	s.grpc.GracefulStop()
	s.logger.Info("grpc_server_stopped")
}

func (s *Server) watch() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.check()
		case <-s.stop:
			return
		}
	}
}

func (s *Server) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("grpc_health_store_unreachable", "error", err.Error())
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("grpc_request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String())
	return resp, err
}
