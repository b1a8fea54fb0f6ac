package storage

import (
	"context"
	"errors"

	"github.com/binhbb2204/GameShelf/pkg/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// Store persists user documents. A user's library and stats are always
// written together so readers never observe one without the other.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, profile models.Profile) error
	SaveLibrary(ctx context.Context, id string, library []models.GameEntry, stats models.Stats) error
	DeleteUser(ctx context.Context, id string) error
	// SearchUsers matches a case-insensitive username substring. Results
	// carry no library.
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	Ping(ctx context.Context) error
	Close() error
}
