package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver for local runs and tests
)

//go:embed migrations
var migrationFS embed.FS

// Dialect names the SQL flavour a DB speaks.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Rebind rewrites '?' placeholders into the dialect's form.
// Repositories write every query with '?' and rebind once.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inQuote = !inQuote
		}
		if c == '?' && !inQuote {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ForUpdate returns the row-locking suffix for SELECTs inside a transaction.
// SQLite serializes writers through its single connection, so it needs none.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// DB wraps the connection pool with the dialect it was opened with.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := Dialect(driver)
	if dialect != Postgres && dialect != SQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == SQLite {
		// One connection: keeps an in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Successfully connected to the database")
	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

// OpenMemory opens a migrated in-memory SQLite database.
func OpenMemory(ctx context.Context) (*DB, error) {
	db, err := Open(ctx, string(SQLite), ":memory:")
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
