package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pointer/internal/chat"
	"pointer/internal/snapshot"

	_ "modernc.org/sqlite"
)

// SQLite keeps sessions and the snapshot in a single database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// withTx commits on nil error and rolls back otherwise.
func (s *SQLite) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) SaveSession(ctx context.Context, state *chat.SessionState) error {
	if err := validateID(state.ID); err != nil {
		return err
	}
	msgs, err := json.Marshal(state.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions(id,start_time,last_active,version,messages,summary,message_count)
        VALUES(?,?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET last_active=excluded.last_active, version=excluded.version,
            messages=excluded.messages, summary=excluded.summary, message_count=excluded.message_count`,
		state.ID,
		state.StartTime.Format(time.RFC3339Nano),
		state.LastActive.Format(time.RFC3339Nano),
		state.Version,
		string(msgs),
		state.GenerateSummary(),
		len(state.Messages),
	)
	return err
}

func (s *SQLite) LoadSession(ctx context.Context, id string) (*chat.SessionState, error) {
	var (
		state             chat.SessionState
		start, last, msgs string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id,start_time,last_active,version,messages FROM sessions WHERE id=?`, id).
		Scan(&state.ID, &start, &last, &state.Version, &msgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	state.StartTime, _ = time.Parse(time.RFC3339Nano, start)
	state.LastActive, _ = time.Parse(time.RFC3339Nano, last)
	if err := json.Unmarshal([]byte(msgs), &state.Messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return &state, nil
}

func (s *SQLite) ListSessions(ctx context.Context) ([]chat.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,start_time,last_active,summary,message_count FROM sessions ORDER BY last_active DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []chat.SessionInfo
	for rows.Next() {
		var (
			info        chat.SessionInfo
			start, last string
		)
		if err := rows.Scan(&info.ID, &start, &last, &info.Summary, &info.MessageCount); err != nil {
			return nil, err
		}
		info.StartTime, _ = time.Parse(time.RFC3339Nano, start)
		info.LastActive, _ = time.Parse(time.RFC3339Nano, last)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SaveSnapshot(ctx context.Context, export snapshot.Export) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_files`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_files(path,content) VALUES(?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for p, content := range export.Files {
			if _, err := stmt.ExecContext(ctx, p, content); err != nil {
				return fmt.Errorf("save %s: %w", p, err)
			}
		}
		for _, p := range export.Structure {
			if _, ok := export.Files[p]; ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, p, ""); err != nil {
				return fmt.Errorf("save %s: %w", p, err)
			}
		}
		return nil
	})
}

func (s *SQLite) LoadSnapshot(ctx context.Context) (snapshot.Export, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path,content FROM snapshot_files`)
	if err != nil {
		return snapshot.Export{}, err
	}
	defer rows.Close()

	export := snapshot.Export{Files: map[string]string{}}
	for rows.Next() {
		var p, content string
		if err := rows.Scan(&p, &content); err != nil {
			return snapshot.Export{}, err
		}
		export.Files[p] = content
		export.Structure = append(export.Structure, p)
	}
	if err := rows.Err(); err != nil {
		return snapshot.Export{}, err
	}
	if len(export.Files) == 0 {
		return snapshot.Export{}, ErrNotFound
	}
	sort.Strings(export.Structure)
	return export, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
