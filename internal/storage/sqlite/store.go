package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/database"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

const timeLayout = time.RFC3339Nano

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens the database file at path and migrates it.
func New(path string) (*Store, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	genres, err := encodeList(user.Profile.FavoriteGenres)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, bio, favorite_genres, join_date,
		                   total_games, completed_games, average_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Profile.Bio, genres, formatTime(user.Profile.JoinDate),
		user.Stats.TotalGames, user.Stats.CompletedGames, user.Stats.AverageRating,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
			return storage.ErrUsernameTaken
		case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if err := insertEntries(ctx, tx, user.ID, user.Library); err != nil {
		return err
	}
	return tx.Commit()
}

const userColumns = `id, username, email, password_hash, bio, favorite_genres, join_date,
	total_games, completed_games, average_rating, created_at`

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = ?`, username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	user.Library, err = s.loadLibrary(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                 models.User
		genres            string
		joinDate, created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Profile.Bio, &genres, &joinDate,
		&u.Stats.TotalGames, &u.Stats.CompletedGames, &u.Stats.AverageRating, &created); err != nil {
		return nil, err
	}

	var err error
	if u.Profile.FavoriteGenres, err = decodeList(genres); err != nil {
		return nil, err
	}
	if u.Profile.JoinDate, err = parseTime(joinDate); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) loadLibrary(ctx context.Context, userID string) ([]models.GameEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, name, background_image, released, rating, platforms, genres,
		       status, user_rating, date_added, date_completed, notes
		FROM library_entries WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("query library: %w", err)
	}
	defer rows.Close()

	library := []models.GameEntry{}
	for rows.Next() {
		var (
			e                 models.GameEntry
			platforms, genres string
			status, dateAdded string
			userRating        sql.NullInt64
			dateCompleted     sql.NullString
		)
		if err := rows.Scan(&e.GameID, &e.Name, &e.BackgroundImage, &e.Released, &e.Rating, &platforms, &genres,
			&status, &userRating, &dateAdded, &dateCompleted, &e.Notes); err != nil {
			return nil, err
		}
		e.Status = models.GameStatus(status)
		if e.Platforms, err = decodeList(platforms); err != nil {
			return nil, err
		}
		if e.Genres, err = decodeList(genres); err != nil {
			return nil, err
		}
		if userRating.Valid {
			r := int(userRating.Int64)
			e.UserRating = &r
		}
		if e.DateAdded, err = parseTime(dateAdded); err != nil {
			return nil, err
		}
		if dateCompleted.Valid {
			t, err := parseTime(dateCompleted.String)
			if err != nil {
				return nil, err
			}
			e.DateCompleted = &t
		}
		library = append(library, e)
	}
	return library, rows.Err()
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *Store) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	genres, err := encodeList(profile.FavoriteGenres)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET bio = ?, favorite_genres = ? WHERE id = ?`,
		profile.Bio, genres, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// SaveLibrary replaces the user's entries and stats in one transaction.
func (s *Store) SaveLibrary(ctx context.Context, id string, library []models.GameEntry, stats models.Stats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET total_games = ?, completed_games = ?, average_rating = ? WHERE id = ?`,
		stats.TotalGames, stats.CompletedGames, stats.AverageRating, id)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM library_entries WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("clear library: %w", err)
	}
	if err := insertEntries(ctx, tx, id, library); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEntries(ctx context.Context, tx *sql.Tx, userID string, library []models.GameEntry) error {
	if len(library) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO library_entries (user_id, game_id, position, name, background_image, released, rating,
		                             platforms, genres, status, user_rating, date_added, date_completed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range library {
		platforms, err := encodeList(e.Platforms)
		if err != nil {
			return err
		}
		genres, err := encodeList(e.Genres)
		if err != nil {
			return err
		}
		var userRating sql.NullInt64
		if e.UserRating != nil {
			userRating = sql.NullInt64{Int64: int64(*e.UserRating), Valid: true}
		}
		var dateCompleted sql.NullString
		if e.DateCompleted != nil {
			dateCompleted = sql.NullString{String: formatTime(*e.DateCompleted), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, userID, e.GameID, i, e.Name, e.BackgroundImage, e.Released, e.Rating,
			platforms, genres, string(e.Status), userRating, formatTime(e.DateAdded), dateCompleted, e.Notes); err != nil {
			return fmt.Errorf("insert library entry %d: %w", e.GameID, err)
		}
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM library_entries WHERE user_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users
		WHERE username LIKE ? ESCAPE '\' ORDER BY username LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	items := []string{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	return items, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
