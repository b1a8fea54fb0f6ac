// Command seed creates demo accounts with populated libraries.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/library"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/storage/backend"
	"github.com/binhbb2204/GameShelf/pkg/config"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/joho/godotenv"
)

const demoPassword = "Demo1234"

type seedEntry struct {
	GameID int64
	Status models.GameStatus
	Rating int
}

type seedUser struct {
	Username string
	Bio      string
	Genres   []string
	Library  []seedEntry
}

var demoUsers = []seedUser{
	{
		Username: "demo",
		Bio:      "Finishing the backlog one RPG at a time.",
		Genres:   []string{"RPG", "Action"},
		Library: []seedEntry{
			{GameID: 3328, Status: models.StatusCompleted, Rating: 10},
			{GameID: 3498, Status: models.StatusPlaying},
			{GameID: 4200, Status: models.StatusPlanToPlay},
		},
	},
	{
		Username: "puzzler",
		Bio:      "Portals and logic.",
		Genres:   []string{"Puzzle"},
		Library: []seedEntry{
			{GameID: 4200, Status: models.StatusCompleted, Rating: 9},
			{GameID: 3498, Status: models.StatusDropped, Rating: 5},
		},
	},
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.Log.Level), cfg.JSONLogs(), os.Stdout)
	log := logger.GetLogger().WithContext("component", "seed")
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed_to_initialize_database", "error", err.Error(), "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer store.Close()

	var catalog games.ExternalSource = games.NewMockExternalSource()
	if cfg.Catalog.APIKey != "" {
		catalog = games.NewRAWGSource(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	}
	svc := library.NewService(store, log, library.WithCatalog(catalog))

	created := 0
	for _, u := range demoUsers {
		ok, err := seed(ctx, store, svc, u)
		if err != nil {
			log.Error("seed_user_failed", "username", u.Username, "error", err.Error())
			os.Exit(1)
		}
		if ok {
			created++
		}
	}
	log.Info("seed_complete", "created", created, "skipped", len(demoUsers)-created)
	fmt.Printf("Demo accounts use password %q\n", demoPassword)
}

// seed creates one user and fills their library. Existing users are left
// untouched.
func seed(ctx context.Context, store storage.Store, svc *library.Service, u seedUser) (bool, error) {
	if _, err := store.GetUserByUsername(ctx, u.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           utils.NewUUID(),
		Username:     u.Username,
		Email:        u.Username + "@example.com",
		PasswordHash: hash,
		Profile:      models.Profile{Bio: u.Bio, FavoriteGenres: u.Genres, JoinDate: now},
		Library:      []models.GameEntry{},
		CreatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return false, err
	}

	for _, e := range u.Library {
		req := models.AddEntryRequest{GameID: e.GameID, Status: e.Status}
		if e.Rating > 0 {
			rating := e.Rating
			req.UserRating = &rating
		}
		if _, _, err := svc.Add(ctx, user.ID, req); err != nil {
			return false, fmt.Errorf("add game %d: %w", e.GameID, err)
		}
	}
	return true, nil
}
