package library

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.CreateUser(context.Background(), &models.User{
		ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x",
		Profile: models.Profile{JoinDate: now}, CreatedAt: now,
	}))
	return store
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, opts ...Option) (*Service, *sqlite.Store, *fixedClock) {
	store := newTestStore(t)
	clock := &fixedClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(store, logger.New(logger.INFO, false, nil), opts...), store, clock
}

func TestServiceAddPersistsEntryAndStats(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store, clock := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	e, stats, err := svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 10, Name: "Celeste", Status: models.StatusCompleted, UserRating: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, clock.now, e.DateAdded)
	require.NotNil(t, e.DateCompleted)
	assert.Equal(t, models.Stats{TotalGames: 1, CompletedGames: 1, AverageRating: 9}, stats)

	user, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, stats, user.Stats)
	require.Len(t, user.Library, 1)
	assert.Equal(t, "Celeste", user.Library[0].Name)

	_, _, err = svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 10, Name: "Celeste"})
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	assert.Equal(t, []events.EventType{events.EventLibraryAdd, events.EventStatsUpdated}, pub.types())
}

func TestServiceAddFetchesMetadataFromCatalog(t *testing.T) {
	catalog := games.NewMockExternalSource()
	svc, _, _ := newTestService(t, WithCatalog(catalog))
	ctx := context.Background()

	e, _, err := svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 3328})
	require.NoError(t, err)
	assert.Equal(t, "The Witcher 3: Wild Hunt", e.Name)
	assert.Equal(t, 4.66, e.Rating)
	assert.Equal(t, []string{"Action", "RPG"}, e.Genres)
	assert.Equal(t, models.StatusPlanToPlay, e.Status)
	assert.Equal(t, 1, catalog.GetByIDCalls)

	// a provided name skips the lookup
	_, _, err = svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 4200, Name: "Portal 2"})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.GetByIDCalls)

	_, _, err = svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 999})
	assert.ErrorIs(t, err, games.ErrGameNotFound)
}

func TestServiceAddWithoutNameOrCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.Add(context.Background(), "u1", models.AddEntryRequest{GameID: 5})
	assert.ErrorIs(t, err, ErrMissingGameName)
}

func TestServiceUpdateAndRemove(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store, clock := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 1, Name: "Hades", Status: models.StatusPlaying})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, "u1", models.AddEntryRequest{GameID: 2, Name: "Inside", Status: models.StatusCompleted, UserRating: intPtr(6)})
	require.NoError(t, err)

	clock.now = clock.now.Add(48 * time.Hour)
	e, stats, err := svc.Update(ctx, "u1", 1, models.UpdateEntryRequest{Status: statusPtr(models.StatusCompleted), UserRating: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, clock.now, *e.DateCompleted)
	assert.Equal(t, models.Stats{TotalGames: 2, CompletedGames: 2, AverageRating: 7.5}, stats)

	stored, err := svc.Get(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, clock.now, *stored.DateCompleted)

	stats, err = svc.Remove(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalGames: 1, CompletedGames: 1, AverageRating: 9}, stats)

	_, err = svc.Remove(ctx, "u1", 2)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, _, err = svc.Update(ctx, "u1", 2, models.UpdateEntryRequest{Notes: strPtr("gone")})
	assert.ErrorIs(t, err, ErrEntryNotFound)

	user, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, stats, user.Stats)

	assert.Contains(t, pub.types(), events.EventStatusChange)
	assert.Contains(t, pub.types(), events.EventLibraryRemove)
}

func TestServiceListAndStats(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	for i, name := range []string{"b-game", "A-game", "c-game"} {
		clock.now = clock.now.Add(time.Minute)
		status := models.StatusPlaying
		if i == 1 {
			status = models.StatusDropped
		}
		_, _, err := svc.Add(ctx, "u1", models.AddEntryRequest{GameID: int64(i + 1), Name: name, Status: status})
		require.NoError(t, err)
	}

	entries, stats, err := svc.List(ctx, "u1", ListOptions{SortBy: SortByName, Order: Ascending})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3}, ids(entries))
	assert.Equal(t, 3, stats.TotalGames)

	entries, _, err = svc.List(ctx, "u1", ListOptions{Status: models.StatusPlaying, SortBy: SortByDateAdded, Order: Descending})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(entries))

	resp, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ByStatus[models.StatusPlaying])
	assert.Equal(t, 1, resp.ByStatus[models.StatusDropped])

	_, _, err = svc.List(ctx, "ghost", ListOptions{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServiceConcurrentAddsDoNotLoseWrites(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _, err := svc.Add(ctx, "u1", models.AddEntryRequest{GameID: id, Name: "game"})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	user, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, user.Library, 20)
	assert.Equal(t, 20, user.Stats.TotalGames)
	assert.Equal(t, 0, svc.locks.size())
}
