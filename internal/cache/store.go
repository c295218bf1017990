// Package cache persists lint reports in SQLite, keyed by the hash of the
// source text and of the configuration that produced them.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// ErrNotOpen is returned when the store has no database connection.
var ErrNotOpen = errors.New("report cache not opened")

// Store is a persistent report cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// Stats describes the cache contents.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
}

// Open opens or creates the cache database at path and migrates it. Use
// ":memory:" for an in-memory cache.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open report cache: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping report cache: %w", err)
	}

	s := NewWithDB(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already migrated connection.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached report for a source and configuration hash.
func (s *Store) Get(ctx context.Context, contentHash, configHash string) (lint.Report, bool, error) {
	if s.db == nil {
		return lint.Report{}, false, ErrNotOpen
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE content_hash = ? AND config_hash = ?`,
		contentHash, configHash,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return lint.Report{}, false, nil
	}
	if err != nil {
		return lint.Report{}, false, fmt.Errorf("failed to get cached report: %w", err)
	}

	var report lint.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		s.logger.Warn("dropping corrupt cache entry", "hash", contentHash, "error", err)
		_, _ = s.Invalidate(ctx, contentHash)
		return lint.Report{}, false, nil
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []lint.Diagnostic{}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE reports SET hits = hits + 1 WHERE content_hash = ? AND config_hash = ?`,
		contentHash, configHash,
	); err != nil {
		return lint.Report{}, false, fmt.Errorf("failed to record cache hit: %w", err)
	}
	return report, true, nil
}

// Put stores a report, replacing any previous entry for the same key.
func (s *Store) Put(ctx context.Context, contentHash, configHash string, report lint.Report) error {
	if s.db == nil {
		return ErrNotOpen
	}
	raw, err := report.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (content_hash, config_hash, report, created_at, hits) VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT (content_hash, config_hash) DO UPDATE SET report = excluded.report, created_at = excluded.created_at, hits = 0`,
		contentHash, configHash, string(raw), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// Invalidate removes every entry for a source hash and returns how many
// were removed.
func (s *Store) Invalidate(ctx context.Context, contentHash string) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE content_hash = ?`, contentHash)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate report: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes entries created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune report cache: %w", err)
	}
	return res.RowsAffected()
}

// Purge removes every entry.
func (s *Store) Purge(ctx context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports`); err != nil {
		return fmt.Errorf("failed to purge report cache: %w", err)
	}
	return nil
}

// Stats returns the number of entries and the total hit count.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if s.db == nil {
		return Stats{}, ErrNotOpen
	}
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM reports`,
	).Scan(&st.Entries, &st.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}
