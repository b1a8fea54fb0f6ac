package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the SQLite database at dbPath and brings
// the schema up to date. ":memory:" opens a private in-memory database.
func Open(dbPath string) (*sql.DB, error) {
	var dsn string
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("database_connected", "driver", "sqlite", "path", dbPath)

	if err = createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        username TEXT UNIQUE NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        bio TEXT NOT NULL DEFAULT '',
        favorite_genres TEXT NOT NULL DEFAULT '[]',
        join_date TEXT NOT NULL,
        total_games INTEGER NOT NULL DEFAULT 0,
        completed_games INTEGER NOT NULL DEFAULT 0,
        average_rating REAL NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS library_entries (
        user_id TEXT NOT NULL,
        game_id INTEGER NOT NULL,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        background_image TEXT NOT NULL DEFAULT '',
        released TEXT NOT NULL DEFAULT '',
        rating REAL NOT NULL DEFAULT 0,
        platforms TEXT NOT NULL DEFAULT '[]',
        genres TEXT NOT NULL DEFAULT '[]',
        status TEXT NOT NULL DEFAULT 'plan-to-play',
        user_rating INTEGER,
        date_added TEXT NOT NULL,
        date_completed TEXT,
        PRIMARY KEY (user_id, game_id),
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
    CREATE INDEX IF NOT EXISTS idx_library_user_position ON library_entries(user_id, position);
    `

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	// notes arrived after the first release of the library table
	return ensureColumn(db, "library_entries", "notes", `TEXT NOT NULL DEFAULT ''`)
}

func ensureColumn(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		if strings.EqualFold(name, column) {
			found = true
			break
		}
	}
	rows.Close()
	if found {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, definition)); err != nil {
		return fmt.Errorf("adding %s.%s column: %w", table, column, err)
	}
	logger.Info("database_column_added", "table", table, "column", column)
	return nil
}
