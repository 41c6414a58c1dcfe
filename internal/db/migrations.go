package db

import (
	"fmt"
	"log/slog"
	"strings"
)

// migration is a named schema step. Statements must be idempotent.
type migration struct {
	name       string
	statements []string
}

// migrations are applied in order on every start
var migrations = []migration{
	{
		name: "create users",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password TEXT,
				google_id TEXT,
				name TEXT NOT NULL DEFAULT '',
				profile_photo TEXT,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id)`,
		},
	},
	{
		name: "add profile details",
		statements: []string{
			`ALTER TABLE users ADD COLUMN phone TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE users ADD COLUMN address TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE users ADD COLUMN dob TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE users ADD COLUMN bio TEXT NOT NULL DEFAULT ''`,
		},
	},
}

// migrate runs database migrations
func (db *DB) migrate() error {
	for _, m := range migrations {
		for _, stmt := range m.statements {
			if _, err := db.Exec(stmt); err != nil {
				// Re-running ADD COLUMN on an existing schema is expected
				if isDuplicateColumnError(err) {
					continue
				}
				return fmt.Errorf("migration %q: %w", m.name, err)
			}
		}
		slog.Debug("migration applied", "name", m.name, "driver", db.driver)
	}
	return nil
}

// isDuplicateColumnError checks if error is about duplicate column
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate column name") ||
		strings.Contains(errStr, "already exists")
}
