package cli

import (
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/server"
	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

func startAPI(t *testing.T) *url.URL {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.New(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Store:     store,
		Catalog:   games.NewMockExternalSource(),
		JWTSecret: "cli-secret",
		Logger:    logger.New(logger.ERROR, false, nil),
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func runCLI(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	passwordInput = strings.NewReader(stdin)
	t.Cleanup(func() { passwordInput = os.Stdin })
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestCLILibraryWorkflow(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".gameshelf")
	t.Setenv("GAMESHELF_HOME", home)
	t.Cleanup(closeLogFile)
	api := startAPI(t)

	require.NoError(t, runCLI(t, "", "init"))
	require.NoError(t, runCLI(t, "", "config", "set", "server.host", api.Hostname()))
	require.NoError(t, runCLI(t, "", "config", "set", "server.http_port", api.Port()))

	err := runCLI(t, "", "library", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)

	require.NoError(t, runCLI(t, "Passw0rd!\nPassw0rd!\n",
		"auth", "register", "--username", "alice", "--email", "alice@example.com"))
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User.Username)
	require.NotEmpty(t, cfg.User.Token)

	require.NoError(t, runCLI(t, "", "library", "add", "--game-id", "3328", "--status", "completed", "--rating", "9"))
	require.NoError(t, runCLI(t, "", "library", "add", "--game-id", "4200", "--status", "plan-to-play", "--rating", "7"))

	exported := filepath.Join(t.TempDir(), "library.csv")
	require.NoError(t, runCLI(t, "", "export", "library", "--format", "csv", "--output", exported))
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Portal 2")
	assert.Contains(t, string(data), "The Witcher 3: Wild Hunt")

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "3328,"), "export should list games oldest first")
	assert.True(t, strings.HasPrefix(lines[2], "4200,"))

	require.NoError(t, runCLI(t, "", "library", "remove", "3328"))
	require.NoError(t, runCLI(t, "", "library", "remove", "4200"))
	require.NoError(t, runCLI(t, "", "import", "--format", "csv", "--input", exported))

	client := newAPIClient(cfg.ServerURL(), cfg.User.Token)
	var lib models.LibraryResponse
	byAdded := url.Values{"sort_by": {"dateAdded"}, "order": {"asc"}}
	require.NoError(t, client.get(context.Background(), "/api/games/library", byAdded, &lib))
	require.Equal(t, 2, lib.Count)
	assert.Equal(t, int64(3328), lib.Games[0].GameID)
	assert.Equal(t, int64(4200), lib.Games[1].GameID)
	assert.Equal(t, 1, lib.Stats.CompletedGames)
	assert.Equal(t, 9.0, lib.Stats.AverageRating)

	logData, err := os.ReadFile(filepath.Join(home, "logs", "cli.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "api_request")

	require.NoError(t, runCLI(t, "", "auth", "logout"))
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.User.Token)

	// The revoked token no longer works even if a copy was kept.
	err = client.get(context.Background(), "/api/games/library", nil, &lib)
	assert.Equal(t, 401, statusOf(err))
}

func TestCLIRegisterRejectsMismatchedPasswords(t *testing.T) {
	t.Setenv("GAMESHELF_HOME", filepath.Join(t.TempDir(), ".gameshelf"))
	t.Cleanup(closeLogFile)

	require.NoError(t, runCLI(t, "", "init", "--force"))
	err := runCLI(t, "Passw0rd!\nDifferent1\n", "auth", "register", "--username", "bob", "--email", "bob@example.com")
	assert.EqualError(t, err, "passwords do not match")
}
