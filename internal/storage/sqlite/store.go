// Package sqlite provides the SQLite-backed player statistics store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tnttag/internal/domain"
	"tnttag/internal/ports"
	"tnttag/internal/storage/sqlite/migrations"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists player statistics in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the statistics database at path, creating it if needed, and
// applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// EnsurePlayer creates the player's record if missing and binds name to it.
func (s *Store) EnsurePlayer(ctx context.Context, userID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if name == "" {
		return fmt.Errorf("name is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO tnttag_players (xuid, name) VALUES (?, ?)
		 ON CONFLICT(xuid) DO UPDATE SET name = excluded.name`,
		userID, name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ensure player %s: %w", userID, ports.ErrNameTaken)
		}
		return fmt.Errorf("ensure player %s: %w", userID, err)
	}
	return nil
}

// RecordResult applies one concluded round in a single transaction. Players
// without a record are created with their user id as a placeholder name.
func (s *Store) RecordResult(ctx context.Context, result domain.RoundResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record result: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if result.HasWinner() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tnttag_players (xuid, name, wins, win_streak) VALUES (?, ?, 1, 1)
			 ON CONFLICT(xuid) DO UPDATE SET wins = wins + 1, win_streak = win_streak + 1`,
			string(result.Winner), string(result.Winner),
		); err != nil {
			return fmt.Errorf("record win for %s: %w", result.Winner, err)
		}
	}

	for _, loser := range result.Losers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tnttag_players (xuid, name, losses) VALUES (?, ?, 1)
			 ON CONFLICT(xuid) DO UPDATE SET losses = losses + 1, win_streak = 0`,
			string(loser), string(loser),
		); err != nil {
			return fmt.Errorf("record loss for %s: %w", loser, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record result: %w", err)
	}
	return nil
}

// PlayerStats returns the record for userID or ports.ErrPlayerNotFound.
func (s *Store) PlayerStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return ports.PlayerStats{}, err
	}
	if s == nil || s.sqlDB == nil {
		return ports.PlayerStats{}, fmt.Errorf("storage is not configured")
	}

	var stats ports.PlayerStats
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT xuid, name, wins, win_streak, losses FROM tnttag_players WHERE xuid = ?`,
		strings.TrimSpace(userID),
	).Scan(&stats.UserID, &stats.Name, &stats.Wins, &stats.WinStreak, &stats.Losses)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.PlayerStats{}, ports.ErrPlayerNotFound
	}
	if err != nil {
		return ports.PlayerStats{}, fmt.Errorf("get player stats %s: %w", userID, err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ ports.StatsPort = (*Store)(nil)
