package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

const (
	keyPrefix        = "gameshelf:catalog:"
	DefaultSearchTTL = 10 * time.Minute
	DefaultDetailTTL = time.Hour
)

// Cache is a byte-oriented TTL cache. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedSource serves catalog reads from Cache and fills it on a miss.
// Cache failures are logged and the inner source is used directly.
type CachedSource struct {
	inner     ExternalSource
	cache     Cache
	searchTTL time.Duration
	detailTTL time.Duration
	logger    *logger.Logger
}

func NewCachedSource(inner ExternalSource, cache Cache, searchTTL time.Duration, log *logger.Logger) *CachedSource {
	if searchTTL <= 0 {
		searchTTL = DefaultSearchTTL
	}
	return &CachedSource{
		inner:     inner,
		cache:     cache,
		searchTTL: searchTTL,
		detailTTL: DefaultDetailTTL,
		logger:    log,
	}
}

func SearchKey(q string, pageSize int) string {
	return fmt.Sprintf("%ssearch:%s:%d", keyPrefix, strings.ToLower(strings.TrimSpace(q)), pageSize)
}

func GameKey(id int64) string {
	return fmt.Sprintf("%sgame:%d", keyPrefix, id)
}

func (s *CachedSource) Search(ctx context.Context, q string, pageSize int) ([]models.Game, error) {
	pageSize = ClampPageSize(pageSize)
	key := SearchKey(q, pageSize)

	var cached []models.Game
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	games, err := s.inner.Search(ctx, q, pageSize)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, games, s.searchTTL)
	return games, nil
}

func (s *CachedSource) GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error) {
	key := GameKey(id)

	var cached models.GameDetails
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	game, err := s.inner.GetGameByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, game, s.detailTTL)
	return game, nil
}

func (s *CachedSource) lookup(ctx context.Context, key string, out interface{}) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("catalog_cache_get_failed", "key", key, "error", err.Error())
		return false
	}
	if !ok {
		metrics.RecordCacheMiss()
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("catalog_cache_corrupt", "key", key, "error", err.Error())
		return false
	}
	metrics.RecordCacheHit()
	return true
}

func (s *CachedSource) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn("catalog_cache_set_failed", "key", key, "error", err.Error())
	}
}
