package games

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/binhbb2204/GameShelf/pkg/models"
)

// MockExternalSource implements ExternalSource from an in-memory table.
type MockExternalSource struct {
	mu    sync.Mutex
	games map[int64]*models.GameDetails

	// Control flags for testing error scenarios
	ShouldFailSearch  bool
	ShouldFailGetByID bool

	SearchCalls  int
	GetByIDCalls int
}

// NewMockExternalSource creates a mock source seeded with a few games.
func NewMockExternalSource() *MockExternalSource {
	m := &MockExternalSource{games: map[int64]*models.GameDetails{}}
	m.Add(models.GameDetails{
		Game: models.Game{ID: 3498, Slug: "grand-theft-auto-v", Name: "Grand Theft Auto V", Released: "2013-09-17",
			Rating: 4.47, Platforms: []string{"PC", "PlayStation 5"}, Genres: []string{"Action"}},
		Description: "Rockstar's open world crime epic.",
		Developers:  []string{"Rockstar North"},
		Publishers:  []string{"Rockstar Games"},
	})
	m.Add(models.GameDetails{
		Game: models.Game{ID: 3328, Slug: "the-witcher-3-wild-hunt", Name: "The Witcher 3: Wild Hunt", Released: "2015-05-18",
			Rating: 4.66, Platforms: []string{"PC", "Nintendo Switch"}, Genres: []string{"Action", "RPG"}},
		Description: "Geralt hunts for Ciri.",
		Developers:  []string{"CD PROJEKT RED"},
		Publishers:  []string{"CD PROJEKT RED"},
	})
	m.Add(models.GameDetails{
		Game: models.Game{ID: 4200, Slug: "portal-2", Name: "Portal 2", Released: "2011-04-18",
			Rating: 4.61, Platforms: []string{"PC", "Xbox 360"}, Genres: []string{"Puzzle", "Shooter"}},
		Description: "Think with portals.",
		Developers:  []string{"Valve Software"},
		Publishers:  []string{"Valve"},
	})
	return m
}

func (m *MockExternalSource) Add(g models.GameDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = &g
}

func (m *MockExternalSource) Search(ctx context.Context, query string, pageSize int) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.ShouldFailSearch {
		return nil, errors.New("mock search error")
	}

	pageSize = ClampPageSize(pageSize)
	q := strings.ToLower(query)
	results := []models.Game{}
	for _, g := range m.games {
		if strings.Contains(strings.ToLower(g.Name), q) {
			results = append(results, g.Game)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if len(results) > pageSize {
		results = results[:pageSize]
	}
	return results, nil
}

func (m *MockExternalSource) GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetByIDCalls++
	if m.ShouldFailGetByID {
		return nil, errors.New("mock get error")
	}
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	out := *g
	return &out, nil
}
