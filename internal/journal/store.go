// Package journal records the original content of every file tsfix
// overwrites, in a local SQLite database, so runs can be listed and undone.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tsfix/internal/domain"

	_ "modernc.org/sqlite"
)

// ErrNoEntry is returned by Latest when a path has never been journaled.
var ErrNoEntry = errors.New("no journal entry")

// SQLiteStore implements domain.Journal using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.Journal = (*SQLiteStore)(nil)

func Open(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create journal directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	return RunMigrations(s.db, s.logger)
}

func (s *SQLiteStore) Record(ctx context.Context, entry domain.JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (path, fixer, changes, skipped, original, result_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Path, entry.Fixer, entry.Changes, entry.Skipped, entry.Original, entry.ResultHash, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", entry.Path, err)
	}
	s.logger.Debug("journaled run", "path", entry.Path, "fixer", entry.Fixer, "changes", entry.Changes)
	return nil
}

// List returns the most recent runs, newest first, without their original content.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, fixer, changes, skipped, result_hash, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.Path, &e.Fixer, &e.Changes, &e.Skipped, &e.ResultHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Latest returns the newest run recorded for path, including its original content.
func (s *SQLiteStore) Latest(ctx context.Context, path string) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, fixer, changes, skipped, original, result_hash, created_at
		 FROM runs WHERE path = ? ORDER BY id DESC LIMIT 1`, path,
	).Scan(&e.ID, &e.Path, &e.Fixer, &e.Changes, &e.Skipped, &e.Original, &e.ResultHash, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w for %s", ErrNoEntry, path)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes a single run, used once it has been undone.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// Prune deletes runs older than keepDays. Zero keeps everything.
func (s *SQLiteStore) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HashContent returns the hex sha256 of content, as stored in ResultHash.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
