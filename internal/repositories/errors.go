package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"timeclock_backend/internal/database"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrStaleRecord is returned when a versioned update matched no row.
	ErrStaleRecord = errors.New("record was modified concurrently")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx.
// Repository methods take one so they can run inside or outside a transaction.
type SQLExecutor = database.DBTX

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// isUniqueViolation recognises unique constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
