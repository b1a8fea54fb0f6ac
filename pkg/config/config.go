package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/utils"
)

const defaultJWTSecret = "your-secret-key-change-this-in-production"

type Service struct {
	Host     string
	Port     string
	Protocol string
}

type DatabaseConfig struct {
	Driver    string
	Path      string
	MongoURI  string
	MongoName string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CatalogConfig struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is the server configuration, assembled from environment variables.
type Config struct {
	LocalIP     string
	API         Service
	GRPC        Service
	Database    DatabaseConfig
	Redis       RedisConfig
	Catalog     CatalogConfig
	Log         LogConfig
	JWTSecret   string
	TokenTTL    time.Duration
	FrontendURL string
}

func Load() *Config {
	localIP := utils.GetLocalIP()

	return &Config{
		LocalIP: localIP,
		API: Service{
			Host:     getEnvOrDefault("API_HOST", localIP),
			Port:     getEnvOrDefault("API_PORT", "8080"),
			Protocol: "http",
		},
		GRPC: Service{
			Host:     getEnvOrDefault("GRPC_HOST", localIP),
			Port:     os.Getenv("GRPC_PORT"),
			Protocol: "tcp",
		},
		Database: DatabaseConfig{
			Driver:    strings.ToLower(getEnvOrDefault("DB_DRIVER", "sqlite")),
			Path:      getEnvOrDefault("DB_PATH", "./data/gameshelf.db"),
			MongoURI:  os.Getenv("MONGO_URI"),
			MongoName: getEnvOrDefault("MONGO_DB_NAME", "gameshelf"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Catalog: CatalogConfig{
			BaseURL:  getEnvOrDefault("RAWG_BASE_URL", "https://api.rawg.io/api"),
			APIKey:   strings.TrimSpace(os.Getenv("RAWG_API_KEY")),
			CacheTTL: time.Duration(GetEnvInt("CATALOG_CACHE_MINUTES", 10)) * time.Minute,
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		JWTSecret:   getEnvOrDefault("JWT_SECRET", defaultJWTSecret),
		TokenTTL:    time.Duration(GetEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or mongo)", c.Database.Driver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	return nil
}

func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.Log.Format, "json")
}

func (s *Service) Enabled() bool {
	return s.Port != ""
}

func (s *Service) ListenAddr() string {
	return ":" + strings.TrimPrefix(s.Port, ":")
}

func (s *Service) URL() string {
	if s.Protocol == "tcp" || s.Protocol == "udp" {
		return fmt.Sprintf("%s:%s", s.Host, s.Port)
	}
	return fmt.Sprintf("%s://%s:%s", s.Protocol, s.Host, s.Port)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func GetEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
