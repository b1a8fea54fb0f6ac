package server

import (
	"time"

	"github.com/binhbb2204/GameShelf/internal/auth"
	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/health"
	"github.com/binhbb2204/GameShelf/internal/library"
	"github.com/binhbb2204/GameShelf/internal/realtime"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/user"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const defaultFrontendURL = "http://localhost:3000"

// Deps are the collaborators the HTTP API is assembled from. Catalog, Cache,
// Bus and Hub are optional.
type Deps struct {
	Store       storage.Store
	Catalog     games.ExternalSource
	Revoker     auth.Revoker
	Bus         *events.Bus
	Hub         *realtime.Hub
	Cache       health.Pinger
	JWTSecret   string
	FrontendURL string
	Logger      *logger.Logger
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Logger
	if d.Revoker == nil {
		d.Revoker = auth.NewMemoryRevoker()
	}
	if d.FrontendURL == "" {
		d.FrontendURL = defaultFrontendURL
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(metrics.Middleware())

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{d.FrontendURL}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.ExposeHeaders = []string{"Content-Length"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour
	router.Use(cors.New(config))

	opts := []library.Option{}
	if d.Catalog != nil {
		opts = append(opts, library.WithCatalog(d.Catalog))
	}
	var publisher events.Publisher
	if d.Bus != nil {
		publisher = d.Bus
		opts = append(opts, library.WithPublisher(d.Bus))
	}

	authHandler := auth.NewHandler(d.Store, d.JWTSecret, d.Revoker, log)
	userHandler := user.NewHandler(d.Store, d.Revoker, publisher, log)
	gamesHandler := games.NewHandler(d.Catalog, log)
	libraryHandler := library.NewHandler(library.NewService(d.Store, log, opts...), log)

	healthHandler := health.NewHandler("gameshelf-api", d.Store)
	if d.Cache != nil {
		healthHandler.WithCache(d.Cache)
	}
	if d.Hub != nil {
		hub := d.Hub
		healthHandler.WithConnections(func() int { return len(hub.ActiveUsers()) })
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)
	router.GET("/metrics", metrics.Handler())

	requireAuth := auth.AuthMiddleware(d.JWTSecret, d.Revoker)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", requireAuth, authHandler.Logout)
	}

	userGroup := api.Group("/users")
	userGroup.Use(requireAuth)
	{
		userGroup.GET("/profile", userHandler.GetProfile)
		userGroup.PUT("/profile", userHandler.UpdateProfile)
		userGroup.PUT("/password", authHandler.ChangePassword)
		userGroup.DELETE("/account", userHandler.DeleteAccount)
		userGroup.GET("/search", userHandler.SearchUsers)
		userGroup.GET("/:username", userHandler.GetPublicProfile)
	}

	gamesGroup := api.Group("/games")
	{
		gamesGroup.GET("/search", gamesHandler.SearchGames)
		gamesGroup.GET("/details/:id", gamesHandler.GetGameDetails)

		protected := gamesGroup.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/library", libraryHandler.GetLibrary)
			protected.POST("/library", libraryHandler.AddEntry)
			protected.GET("/library/:gameId", libraryHandler.GetEntry)
			protected.PUT("/library/:gameId", libraryHandler.UpdateEntry)
			protected.DELETE("/library/:gameId", libraryHandler.RemoveEntry)
			protected.GET("/stats", libraryHandler.GetStats)
		}
	}

	if d.Hub != nil {
		ws := realtime.NewServer(d.Hub, d.JWTSecret, d.Revoker, d.FrontendURL, log)
		api.GET("/ws", ws.HandleWebSocket)
	}

	return router
}
