package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrStorage marks failures of the local store
var ErrStorage = errors.New("storage error")

// Driver names accepted by database/sql
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultPath is the SQLite database used when no DATABASE_URL is set
const DefaultPath = "./games.db"

// DB is a database handle that knows which SQL dialect it speaks
type DB struct {
	*sql.DB
	driver string
}

// NewDB opens the database described by dsn. postgres:// and postgresql://
// URLs use PostgreSQL; anything else is treated as a SQLite file path.
func NewDB(dsn string) (*DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultPath
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return openPostgres(dsn)
	}
	return openSQLite(dsn)
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// sqliteDSN appends the connection pragmas to a file path or file: URI,
// keeping any query parameters already present
func sqliteDSN(path string) string {
	base, query, _ := strings.Cut(path, "?")
	if query == "" {
		return filepath.Clean(base) + "?" + sqlitePragmas
	}
	return filepath.Clean(base) + "?" + query + "&" + sqlitePragmas
}

func openSQLite(path string) (*DB, error) {
	db, err := sql.Open(DriverSQLite, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrStorage, err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrStorage, err)
	}

	return &DB{DB: db, driver: DriverSQLite}, nil
}

func openPostgres(dsn string) (*DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres db: %w", ErrStorage, err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres db: %w", ErrStorage, err)
	}

	return &DB{DB: db, driver: DriverPostgres}, nil
}

// Driver returns the database/sql driver name of the handle
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into the dialect's bind syntax
func (db *DB) Rebind(query string) string {
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

// Close releases the handle. Safe on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
