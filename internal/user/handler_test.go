package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/internal/auth"
	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
)

const testSecret = "user-test-secret"

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type fixture struct {
	router  *gin.Engine
	store   *sqlite.Store
	pub     *capturePublisher
	revoker *auth.MemoryRevoker
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.New(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, pub: &capturePublisher{}, revoker: auth.NewMemoryRevoker()}
	h := NewHandler(store, f.revoker, f.pub, logger.New(logger.INFO, false, nil))

	r := gin.New()
	users := r.Group("/api/users")
	users.Use(auth.AuthMiddleware(testSecret, f.revoker))
	users.GET("/profile", h.GetProfile)
	users.PUT("/profile", h.UpdateProfile)
	users.DELETE("/account", h.DeleteAccount)
	users.GET("/search", h.SearchUsers)
	users.GET("/:username", h.GetPublicProfile)
	f.router = r
	return f
}

func (f *fixture) createUser(t *testing.T, id, username string) string {
	t.Helper()
	hash, err := utils.HashPassword("Passw0rd!")
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, f.store.CreateUser(context.Background(), &models.User{
		ID: id, Username: username, Email: username + "@example.com", PasswordHash: hash,
		Profile:   models.Profile{Bio: "hi", FavoriteGenres: []string{"RPG"}, JoinDate: now},
		Library:   []models.GameEntry{{GameID: 1, Name: "Hades", Status: models.StatusPlaying, Notes: "secret", DateAdded: now}},
		Stats:     models.Stats{TotalGames: 1},
		CreatedAt: now,
	}))
	token, err := utils.GenerateJWT(id, username, testSecret)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGetProfile(t *testing.T) {
	f := setup(t)
	token := f.createUser(t, "u1", "alice")

	w := f.do(http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, body, "library")
	assert.NotContains(t, body, "password_hash")
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 1.0, stats["total_games"])
}

func TestUpdateProfile(t *testing.T) {
	f := setup(t)
	token := f.createUser(t, "u1", "alice")

	w := f.do(http.MethodPut, "/api/users/profile", token, gin.H{"bio": "  speedrunner ", "favorite_genres": []string{"Action", " action", "Puzzle "}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := f.store.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "speedrunner", u.Profile.Bio)
	assert.Equal(t, []string{"Action", "Puzzle"}, u.Profile.FavoriteGenres)
	assert.Len(t, u.Library, 1)

	// bio only leaves genres alone
	w = f.do(http.MethodPut, "/api/users/profile", token, gin.H{"bio": ""})
	require.Equal(t, http.StatusOK, w.Code)
	u, _ = f.store.GetUserByID(context.Background(), "u1")
	assert.Equal(t, "", u.Profile.Bio)
	assert.Equal(t, []string{"Action", "Puzzle"}, u.Profile.FavoriteGenres)

	w = f.do(http.MethodPut, "/api/users/profile", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "g"
	}
	w = f.do(http.MethodPut, "/api/users/profile", token, gin.H{"favorite_genres": tooMany})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "favorite_genres must contain at most 10 items")
}

func TestDeleteAccount(t *testing.T) {
	f := setup(t)
	token := f.createUser(t, "u1", "alice")

	w := f.do(http.MethodDelete, "/api/users/account", token, gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodDelete, "/api/users/account", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, "/api/users/account", token, gin.H{"password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, w.Code)

	_, err := f.store.GetUserByID(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.EventAccountDeleted, f.pub.events[0].Type)

	// token no longer usable
	w = f.do(http.MethodGet, "/api/users/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchAndPublicProfile(t *testing.T) {
	f := setup(t)
	token := f.createUser(t, "u1", "alice")
	f.createUser(t, "u2", "malice")
	f.createUser(t, "u3", "bob")

	w := f.do(http.MethodGet, "/api/users/search?q=LIC", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Users []models.PublicProfile `json:"users"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "alice", res.Users[0].Username)
	assert.Equal(t, "malice", res.Users[1].Username)
	assert.NotContains(t, w.Body.String(), "@example.com")

	w = f.do(http.MethodGet, "/api/users/search?q=a&limit=1", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Count)

	w = f.do(http.MethodGet, "/api/users/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/users/bob", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.NotContains(t, w.Body.String(), "bob@example.com")

	w = f.do(http.MethodGet, "/api/users/nobody", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
