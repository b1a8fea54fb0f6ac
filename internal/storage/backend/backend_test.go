package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/pkg/config"
)

func TestOpenSQLite(t *testing.T) {
	for _, driver := range []string{"", "sqlite"} {
		store, err := Open(context.Background(), config.DatabaseConfig{
			Driver: driver,
			Path:   filepath.Join(t.TempDir(), "shelf.db"),
		})
		require.NoError(t, err)
		assert.NoError(t, store.Ping(context.Background()))
		require.NoError(t, store.Close())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	assert.ErrorContains(t, err, "unknown database driver")
}
