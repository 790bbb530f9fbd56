// Package storage opens the local SQLite database and applies the embedded
// goose migrations. Preferences and the sqlite credential backend live there.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mobirithm/appkit/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "appkit.db"

// RunMigrations brings the schema up to date. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
// A single connection is used so ":memory:" databases stay coherent and
// writers never contend.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", dsn, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
