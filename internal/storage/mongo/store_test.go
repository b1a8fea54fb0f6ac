package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	dbName := "gameshelf_test_" + uuid.NewString()[:8]
	s, err := New(context.Background(), uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func testUser(id, username string) *models.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Profile:      models.Profile{JoinDate: now},
		CreatedAt:    now,
	}
}

func TestMongoUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("u1", "alice")))
	assert.ErrorIs(t, s.CreateUser(ctx, testUser("u2", "alice")), storage.ErrUsernameTaken)

	dup := testUser("u3", "carol")
	dup.Email = "alice@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrEmailTaken)

	rating := 8
	done := time.Now().UTC().Truncate(time.Millisecond)
	library := []models.GameEntry{
		{GameID: 2, Name: "Portal", Status: models.StatusCompleted, UserRating: &rating, DateAdded: done, DateCompleted: &done},
		{GameID: 1, Name: "Doom", Status: models.StatusPlaying, DateAdded: done},
	}
	require.NoError(t, s.SaveLibrary(ctx, "u1", library, models.Stats{TotalGames: 2, CompletedGames: 1, AverageRating: 8}))

	u, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, u.Library, 2)
	assert.Equal(t, int64(2), u.Library[0].GameID)
	assert.Equal(t, 8.0, u.Stats.AverageRating)
	assert.Nil(t, u.Library[1].DateCompleted)

	users, err := s.SearchUsers(ctx, "ALI", 5)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Nil(t, users[0].Library)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	_, err = s.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePassword(ctx, "u1", "x"), storage.ErrNotFound)
}
