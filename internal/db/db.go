package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	userColumns = "id, email, password, google_id, name, profile_photo, phone, address, dob, bio, created_at, updated_at"
)

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("record already exists")
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	driver string
	dsn    string
}

// Init initializes the database connection and runs migrations
func Init(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		// Ensure data directory exists
		path, _, _ := strings.Cut(dsn, "?")
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	db := &DB{DB: sqlDB, driver: driver, dsn: dsn}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// sqliteDSN appends the connection pragmas, keeping any query the path already has
func sqliteDSN(path string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

// Driver returns the SQL driver name
func (db *DB) Driver() string {
	return db.driver
}

// rebind converts ? placeholders to $n for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation checks for unique constraint failures on either driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u                         User
		password, googleID, photo sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &password, &googleID, &u.Name, &photo,
		&u.Phone, &u.Address, &u.DOB, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.PasswordHash = password.String
	u.GoogleID = googleID.String
	u.ProfilePhoto = photo.String
	return &u, nil
}

// nullable maps "" to NULL so unique indexes ignore unset values
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateUser inserts a new account
func (db *DB) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	_, err := db.ExecContext(ctx, db.rebind(
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		user.ID, user.Email, nullable(user.PasswordHash), nullable(user.GoogleID), user.Name,
		nullable(user.ProfilePhoto), user.Phone, user.Address, user.DOB, user.Bio,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
	}
	return err
}

// GetUserByID retrieves an account by ID
func (db *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := db.QueryRowContext(ctx, db.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return scanUser(row)
}

// GetUserByEmail retrieves an account by normalized email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := db.QueryRowContext(ctx, db.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return scanUser(row)
}

// GetUserByGoogleID retrieves an account by its linked Google identity
func (db *DB) GetUserByGoogleID(ctx context.Context, googleID string) (*User, error) {
	row := db.QueryRowContext(ctx, db.rebind("SELECT "+userColumns+" FROM users WHERE google_id = ?"), googleID)
	return scanUser(row)
}

// UpdateUser writes every mutable column of an account
func (db *DB) UpdateUser(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.ExecContext(ctx, db.rebind(
		`UPDATE users SET email = ?, password = ?, google_id = ?, name = ?, profile_photo = ?,
			phone = ?, address = ?, dob = ?, bio = ?, updated_at = ? WHERE id = ?`),
		user.Email, nullable(user.PasswordHash), nullable(user.GoogleID), user.Name,
		nullable(user.ProfilePhoto), user.Phone, user.Address, user.DOB, user.Bio,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %s: %w", user.ID, ErrDuplicate)
		}
		return err
	}
	return expectOneRow(res)
}

// DeleteUser removes an account
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, db.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// CountUsers returns the number of accounts
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// ListProfilePhotos returns every stored photo path
func (db *DB) ListProfilePhotos(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT profile_photo FROM users WHERE profile_photo IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []string
	for rows.Next() {
		var photo string
		if err := rows.Scan(&photo); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
