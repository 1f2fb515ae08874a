package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed counters/*.sql analytics/*.sql
var migrationFS embed.FS

// Counters migrates the authoritative counter store (posts, ledgers, comments).
func Counters(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, "counters")
}

// Analytics migrates the append-only analytical store (event tables).
func Analytics(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, "analytics")
}

func up(ctx context.Context, db *sql.DB, dir string) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run %s migrations: %w", dir, err)
	}
	return nil
}
