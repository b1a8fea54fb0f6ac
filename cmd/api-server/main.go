package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/binhbb2204/GameShelf/internal/auth"
	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/grpcserver"
	"github.com/binhbb2204/GameShelf/internal/health"
	"github.com/binhbb2204/GameShelf/internal/realtime"
	"github.com/binhbb2204/GameShelf/internal/server"
	"github.com/binhbb2204/GameShelf/internal/storage/backend"
	"github.com/binhbb2204/GameShelf/pkg/config"
	"github.com/binhbb2204/GameShelf/pkg/database"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout  = 10 * time.Second
	breakerThreshold = 5
	breakerTimeout   = 30 * time.Second
)

func main() {
	// Load environment variables from .env if present (optional)
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.Log.Level), cfg.JSONLogs(), os.Stdout)
	log := logger.GetLogger().WithContext("component", "api_server")
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid_configuration", "error", err.Error())
		os.Exit(1)
	}
	if cfg.UsingDefaultSecret() {
		log.Warn("using_default_jwt_secret", "message", "Set JWT_SECRET environment variable in production!")
	}
	utils.TokenTTL = cfg.TokenTTL
	if log.Level() != logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed_to_initialize_database", "error", err.Error(), "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer store.Close()

	var (
		rdb     *redis.Client
		revoker auth.Revoker = auth.NewMemoryRevoker()
		cache   health.Pinger
	)
	if cfg.Redis.Addr != "" {
		rdb, err = database.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis_unavailable", "addr", cfg.Redis.Addr, "error", err.Error())
			rdb = nil
		} else {
			defer rdb.Close()
			revoker = auth.NewRedisRevoker(rdb)
			cache = health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
			log.Info("redis_connected", "addr", cfg.Redis.Addr)
		}
	}

	catalog := buildCatalog(cfg, rdb, log)

	bus := events.NewBus(logger.GetLogger().WithContext("component", "event_bus"))
	hub := realtime.NewHub(logger.GetLogger().WithContext("component", "realtime"))
	hub.Attach(bus)
	bus.Start()
	defer bus.Stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	router := server.NewRouter(server.Deps{
		Store:       store,
		Catalog:     catalog,
		Revoker:     revoker,
		Bus:         bus,
		Hub:         hub,
		Cache:       cache,
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		Logger:      logger.GetLogger().WithContext("component", "http"),
	})

	srv := &http.Server{
		Addr:              cfg.API.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled() {
		lis, err := net.Listen("tcp", cfg.GRPC.ListenAddr())
		if err != nil {
			log.Error("failed_to_listen_grpc", "error", err.Error(), "port", cfg.GRPC.Port)
			os.Exit(1)
		}
		grpcSrv = grpcserver.New(store, logger.GetLogger().WithContext("component", "grpc"))
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error("grpc_server_failed", "error", err.Error())
			}
		}()
	}

	go func() {
		log.Info("starting_api_server", "port", cfg.API.Port, "url", cfg.API.URL(), "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed_to_start_api_server", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("api_server_shutdown_failed", "error", err.Error())
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	log.Info("api_server_stopped")
}

// buildCatalog wraps RAWG in a circuit breaker and, when redis is up, a
// response cache. It returns nil when no API key is configured.
func buildCatalog(cfg *config.Config, rdb *redis.Client, log *logger.Logger) games.ExternalSource {
	if cfg.Catalog.APIKey == "" {
		log.Warn("catalog_not_configured", "message", "Set RAWG_API_KEY to enable game search")
		return nil
	}

	var source games.ExternalSource = games.NewBreakerSource(
		games.NewRAWGSource(cfg.Catalog.BaseURL, cfg.Catalog.APIKey),
		games.NewCircuitBreaker(breakerThreshold, breakerTimeout),
	)
	if rdb != nil {
		source = games.NewCachedSource(source, games.NewRedisCache(rdb), cfg.Catalog.CacheTTL,
			logger.GetLogger().WithContext("component", "catalog_cache"))
	}
	return source
}
