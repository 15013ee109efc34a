package store

import (
	"context"
	"database/sql"
	"fmt"
)

const latestSchemaVersion = 2

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`); err != nil {
		return err
	}
	var cnt int
	_ = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&cnt)
	if cnt == 0 {
		_, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`)
		return err
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// migrate brings db up to latestSchemaVersion.
func migrate(ctx context.Context, db *sql.DB) error {
	cur, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for v := cur + 1; v <= latestSchemaVersion; v++ {
		if err := migrateUp(ctx, db, v); err != nil {
			return fmt.Errorf("migrate up to v%d: %w", v, err)
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version=?`, v); err != nil {
			return err
		}
	}
	return nil
}

func migrateUp(ctx context.Context, db *sql.DB, v int) error {
	var stmts []string
	switch v {
	case 1:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
                id TEXT PRIMARY KEY,
                start_time TEXT NOT NULL,
                last_active TEXT NOT NULL,
                version INTEGER NOT NULL,
                messages TEXT NOT NULL
            );`,
			`CREATE TABLE IF NOT EXISTS snapshot_files (
                path TEXT PRIMARY KEY,
                content TEXT NOT NULL
            );`,
		}
	case 2:
		// listing columns so ListSessions does not decode every transcript
		stmts = []string{
			`ALTER TABLE sessions ADD COLUMN summary TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE sessions ADD COLUMN message_count INTEGER NOT NULL DEFAULT 0`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);`,
		}
	default:
		return fmt.Errorf("unknown schema version %d", v)
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
