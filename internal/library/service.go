package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

// Catalog looks up display metadata for a game being added without it.
type Catalog interface {
	GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error)
}

// Service runs the load, mutate, recompute, save cycle for one user's
// library. Mutations for the same user never interleave.
type Service struct {
	store     storage.Store
	catalog   Catalog
	publisher events.Publisher
	logger    *logger.Logger
	locks     *keyedMutex
	now       func() time.Time
}

type Option func(*Service)

func WithCatalog(c Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.Store, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the filtered, sorted library and the stored stats.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]models.GameEntry, models.Stats, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, models.Stats{}, err
	}
	return List(user.Library, opts), user.Stats, nil
}

func (s *Service) Get(ctx context.Context, userID string, gameID int64) (*models.GameEntry, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Find(user.Library, gameID)
}

func (s *Service) Stats(ctx context.Context, userID string) (*models.StatsResponse, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.StatsResponse{Stats: user.Stats, ByStatus: CountByStatus(user.Library)}, nil
}

// Add creates an entry. Without a name the metadata is copied from the
// catalog, which is consulted once.
func (s *Service) Add(ctx context.Context, userID string, req models.AddEntryRequest) (*models.GameEntry, models.Stats, error) {
	entry := models.GameEntry{
		GameID:          req.GameID,
		Name:            strings.TrimSpace(req.Name),
		BackgroundImage: req.BackgroundImage,
		Released:        req.Released,
		Rating:          req.Rating,
		Platforms:       req.Platforms,
		Genres:          req.Genres,
		Status:          req.Status,
		UserRating:      req.UserRating,
		Notes:           req.Notes,
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, models.Stats{}, err
	}
	if _, err := Find(user.Library, entry.GameID); err == nil {
		metrics.RecordLibraryMutation("add", "duplicate")
		return nil, models.Stats{}, ErrDuplicateEntry
	}

	if entry.Name == "" && s.catalog != nil {
		details, err := s.catalog.GetGameByID(ctx, entry.GameID)
		if err != nil {
			metrics.RecordLibraryMutation("add", "catalog_error")
			return nil, models.Stats{}, err
		}
		fillFromCatalog(&entry, details)
	}

	library, err := AddEntry(user.Library, entry, s.now())
	if err != nil {
		metrics.RecordLibraryMutation("add", outcome(err))
		return nil, models.Stats{}, err
	}
	stats, err := s.save(ctx, userID, library)
	if err != nil {
		return nil, models.Stats{}, err
	}

	added := library[len(library)-1]
	metrics.RecordLibraryMutation("add", "ok")
	s.logger.Info("library_entry_added", "user_id", userID, "game_id", added.GameID, "status", added.Status)
	s.publish(events.EventLibraryAdd, userID, map[string]interface{}{
		"game_id": added.GameID,
		"name":    added.Name,
		"status":  added.Status,
	})
	s.publishStats(userID, stats)
	return &added, stats, nil
}

func (s *Service) Update(ctx context.Context, userID string, gameID int64, patch models.UpdateEntryRequest) (*models.GameEntry, models.Stats, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, models.Stats{}, err
	}

	var prevStatus models.GameStatus
	if prev, err := Find(user.Library, gameID); err == nil {
		prevStatus = prev.Status
	}

	updated, err := UpdateEntry(user.Library, gameID, patch, s.now())
	if err != nil {
		metrics.RecordLibraryMutation("update", outcome(err))
		return nil, models.Stats{}, err
	}
	stats, err := s.save(ctx, userID, user.Library)
	if err != nil {
		return nil, models.Stats{}, err
	}

	metrics.RecordLibraryMutation("update", "ok")
	s.logger.Info("library_entry_updated", "user_id", userID, "game_id", gameID, "status", updated.Status)
	s.publish(events.EventLibraryUpdate, userID, map[string]interface{}{
		"game_id": gameID,
		"status":  updated.Status,
	})
	if updated.Status != prevStatus {
		s.publish(events.EventStatusChange, userID, map[string]interface{}{
			"game_id": gameID,
			"from":    prevStatus,
			"to":      updated.Status,
		})
	}
	s.publishStats(userID, stats)
	return updated, stats, nil
}

func (s *Service) Remove(ctx context.Context, userID string, gameID int64) (models.Stats, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	library, err := RemoveEntry(user.Library, gameID)
	if err != nil {
		metrics.RecordLibraryMutation("remove", outcome(err))
		return models.Stats{}, err
	}
	stats, err := s.save(ctx, userID, library)
	if err != nil {
		return models.Stats{}, err
	}

	metrics.RecordLibraryMutation("remove", "ok")
	s.logger.Info("library_entry_removed", "user_id", userID, "game_id", gameID)
	s.publish(events.EventLibraryRemove, userID, map[string]interface{}{"game_id": gameID})
	s.publishStats(userID, stats)
	return stats, nil
}

func (s *Service) save(ctx context.Context, userID string, library []models.GameEntry) (models.Stats, error) {
	stats := ComputeStats(library)
	if err := s.store.SaveLibrary(ctx, userID, library, stats); err != nil {
		metrics.RecordLibraryMutation("save", "error")
		if errors.Is(err, storage.ErrNotFound) {
			return models.Stats{}, err
		}
		return models.Stats{}, fmt.Errorf("save library: %w", err)
	}
	return stats, nil
}

func (s *Service) publish(t events.EventType, userID string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.NewEvent(t, userID, data))
}

func (s *Service) publishStats(userID string, stats models.Stats) {
	s.publish(events.EventStatsUpdated, userID, map[string]interface{}{
		"total_games":     stats.TotalGames,
		"completed_games": stats.CompletedGames,
		"average_rating":  stats.AverageRating,
	})
}

func fillFromCatalog(entry *models.GameEntry, g *models.GameDetails) {
	entry.Name = g.Name
	if entry.BackgroundImage == "" {
		entry.BackgroundImage = g.BackgroundImage
	}
	if entry.Released == "" {
		entry.Released = g.Released
	}
	if entry.Rating == 0 {
		entry.Rating = g.Rating
	}
	if len(entry.Platforms) == 0 {
		entry.Platforms = g.Platforms
	}
	if len(entry.Genres) == 0 {
		entry.Genres = g.Genres
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateEntry):
		return "duplicate"
	case errors.Is(err, ErrEntryNotFound):
		return "not_found"
	default:
		return "invalid"
	}
}
