package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newUser(id, username string) *models.User {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Profile:      models.Profile{Bio: "hi", FavoriteGenres: []string{"RPG"}, JoinDate: now},
		Library:      []models.GameEntry{},
		CreatedAt:    now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice")))

	byID, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, []string{"RPG"}, byID.Profile.FavoriteGenres)
	assert.Empty(t, byID.Library)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateUserDuplicates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice")))

	dupName := newUser("u2", "alice")
	dupName.Email = "other@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dupName), storage.ErrUsernameTaken)

	dupEmail := newUser("u3", "bob")
	dupEmail.Email = "alice@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dupEmail), storage.ErrEmailTaken)
}

func TestSaveLibraryPreservesOrderAndNullables(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice")))

	added := time.Date(2024, 3, 2, 8, 30, 0, 123, time.UTC)
	completed := added.Add(48 * time.Hour)
	rating := 9
	library := []models.GameEntry{
		{GameID: 30, Name: "Zelda", Status: models.StatusCompleted, UserRating: &rating,
			DateAdded: added, DateCompleted: &completed, Platforms: []string{"Switch"}, Genres: []string{}},
		{GameID: 10, Name: "Hades", Status: models.StatusPlaying, DateAdded: added.Add(time.Hour),
			Platforms: []string{}, Genres: []string{"Roguelike"}, Notes: "one more run"},
	}
	stats := models.Stats{TotalGames: 2, CompletedGames: 1, AverageRating: 9}
	require.NoError(t, s.SaveLibrary(ctx, "u1", library, stats))

	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u.Library, 2)
	assert.Equal(t, stats, u.Stats)

	first, second := u.Library[0], u.Library[1]
	assert.Equal(t, int64(30), first.GameID)
	require.NotNil(t, first.UserRating)
	assert.Equal(t, 9, *first.UserRating)
	require.NotNil(t, first.DateCompleted)
	assert.True(t, completed.Equal(*first.DateCompleted))
	assert.True(t, added.Equal(first.DateAdded))

	assert.Equal(t, int64(10), second.GameID)
	assert.Nil(t, second.UserRating)
	assert.Nil(t, second.DateCompleted)
	assert.Equal(t, "one more run", second.Notes)
	assert.Equal(t, []string{"Roguelike"}, second.Genres)

	// a second save replaces the library wholesale
	require.NoError(t, s.SaveLibrary(ctx, "u1", library[1:], models.Stats{TotalGames: 1}))
	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u.Library, 1)
	assert.Equal(t, int64(10), u.Library[0].GameID)
	assert.Equal(t, 1, u.Stats.TotalGames)
}

func TestSaveLibraryUnknownUser(t *testing.T) {
	s := newStore(t)
	err := s.SaveLibrary(context.Background(), "ghost", nil, models.Stats{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice")))

	require.NoError(t, s.UpdateProfile(ctx, "u1", models.Profile{Bio: "new bio", FavoriteGenres: []string{"FPS", "RTS"}}))
	require.NoError(t, s.UpdatePassword(ctx, "u1", "newhash"))

	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new bio", u.Profile.Bio)
	assert.Equal(t, []string{"FPS", "RTS"}, u.Profile.FavoriteGenres)
	assert.Equal(t, "newhash", u.PasswordHash)

	assert.ErrorIs(t, s.UpdatePassword(ctx, "ghost", "x"), storage.ErrNotFound)
}

func TestDeleteUserRemovesLibrary(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice")))
	require.NoError(t, s.SaveLibrary(ctx, "u1", []models.GameEntry{
		{GameID: 1, Name: "Celeste", Status: models.StatusPlanToPlay, DateAdded: time.Now()},
	}, models.Stats{TotalGames: 1}))

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	_, err := s.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM library_entries`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, s.DeleteUser(ctx, "u1"), storage.ErrNotFound)
}

func TestSearchUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i, name := range []string{"alice", "Alicia", "bob", "al_x"} {
		require.NoError(t, s.CreateUser(ctx, newUser(string(rune('a'+i)), name)))
	}

	users, err := s.SearchUsers(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alicia", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)

	// underscore is matched literally
	users, err = s.SearchUsers(ctx, "l_", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "al_x", users[0].Username)

	users, err = s.SearchUsers(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestInMemoryDatabase(t *testing.T) {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.CreateUser(context.Background(), newUser("u1", "alice")))
	_, err = s.GetUserByUsername(context.Background(), "alice")
	assert.NoError(t, err)
}
