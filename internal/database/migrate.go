package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const migrationTable = "schema_migrations"

// Migrate applies the embedded migrations for the dialect, each file at most once.
func (db *DB) Migrate(ctx context.Context) error {
	root := path.Join("migrations", string(db.Dialect))
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		applied, err := db.isApplied(ctx, file)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		err = RunInTx(ctx, db.DB, nil, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("exec migration %s: %w", file, err)
			}
			insert := db.Dialect.Rebind(`INSERT INTO ` + migrationTable + ` (name, applied_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`)
			if _, err := tx.ExecContext(ctx, insert, file, time.Now().UTC().UnixMilli()); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info().Str("migration", file).Msg("Applied database migration")
	}
	return nil
}

func (db *DB) isApplied(ctx context.Context, name string) (bool, error) {
	var found int
	query := db.Dialect.Rebind("SELECT 1 FROM " + migrationTable + " WHERE name = ?")
	err := db.QueryRowContext(ctx, query, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
