// Package store is the relational row store behind the graph cache. It speaks
// database/sql to either SQLite (mattn/go-sqlite3) or Postgres (pgx stdlib).
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/notegraph/internal/events"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Bound parameter budgets per statement. SQLite's historical limit is 999.
const (
	DefaultSQLiteChunkSize   = 900
	DefaultPostgresChunkSize = 10000
)

const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// DB wraps a sql.DB with row-store operations.
type DB struct {
	conn      *sql.DB
	driver    string
	path      string
	chunkSize int
	bus       *events.Bus
}

// Option configures a DB.
type Option func(*DB)

// WithChunkSize caps the number of ids bound into a single IN (...) list.
func WithChunkSize(n int) Option {
	return func(db *DB) {
		if n > 0 {
			db.chunkSize = n
		}
	}
}

// WithBus makes every write publish a change event on bus.
func WithBus(bus *events.Bus) Option {
	return func(db *DB) {
		db.bus = bus
	}
}

// Open opens (or creates) the database and applies the schema.
func Open(driver, dsn string, opts ...Option) (*DB, error) {
	db := &DB{driver: driver}
	switch driver {
	case DriverSQLite:
		db.chunkSize = DefaultSQLiteChunkSize
		db.path, _, _ = strings.Cut(dsn, "?")
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqliteParams
		}
	case DriverPostgres:
		db.chunkSize = DefaultPostgresChunkSize
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	for _, opt := range opts {
		opt(db)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	db.conn = conn

	if err := db.applySchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return db, nil
}

// Driver returns the database/sql driver name.
func (db *DB) Driver() string { return db.driver }

// Path returns the SQLite file path, or "" for Postgres.
func (db *DB) Path() string { return db.path }

// ChunkSize returns the IN-list parameter budget.
func (db *DB) ChunkSize() int { return db.chunkSize }

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ph returns the i-th (1-based) positional placeholder for the active driver.
func (db *DB) ph(i int) string {
	if db.driver == DriverPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// placeholders returns "p1, p2, ..." for n parameters starting at from.
func (db *DB) placeholders(from, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(db.ph(from + i))
	}
	return sb.String()
}
