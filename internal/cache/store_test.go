package cache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cache"
	"github.com/leapstack-labs/contractlint/internal/testutil"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

func sampleReport() lint.Report {
	return lint.Aggregate([]lint.Diagnostic{{
		RuleID:   "EXPORT_NESTED",
		Severity: lint.SeverityError,
		Message:  "function 'inner' marked @export must be defined at module level",
		Pos:      token.Position{Line: 2, Column: 5},
		Source:   lint.SourceRule,
	}})
}

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := cache.Open(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, ok, err := s.Get(ctx, "h1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleReport()
	require.NoError(t, s.Put(ctx, "h1", "c1", want))

	got, ok, err := s.Get(ctx, "h1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.Pass)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, want.Diagnostics[0].Message, got.Diagnostics[0].Message)
	assert.Equal(t, "2:5", got.Diagnostics[0].Pos.String())
	assert.Equal(t, lint.SeverityError, got.Diagnostics[0].Severity)

	_, ok, err = s.Get(ctx, "h1", "other-config")
	require.NoError(t, err)
	assert.False(t, ok, "entries are keyed by configuration too")

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Entries: 1, Hits: 1}, stats)
}

func TestStore_EmptyReport(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Put(ctx, "h", "c", lint.Aggregate()))
	got, ok, err := s.Get(ctx, "h", "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Pass)
	assert.NotNil(t, got.Diagnostics)
	assert.Empty(t, got.Diagnostics)
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Put(ctx, "h", "c", sampleReport()))
	require.NoError(t, s.Put(ctx, "h", "c", lint.Aggregate()))

	got, ok, err := s.Get(ctx, "h", "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Pass)
}

func TestStore_InvalidateAndPurge(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Put(ctx, "h", "c1", sampleReport()))
	require.NoError(t, s.Put(ctx, "h", "c2", sampleReport()))
	require.NoError(t, s.Put(ctx, "other", "c1", sampleReport()))

	n, err := s.Invalidate(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)

	require.NoError(t, s.Purge(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Put(ctx, "old", "c", sampleReport()))
	n, err := s.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Put(ctx, "new", "c", sampleReport()))
	n, err = s.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStore_MigrationVersion(t *testing.T) {
	s := openStore(t)
	v, err := s.MigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestStore_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := cache.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Put(ctx, "h", "c", sampleReport()))
	_, ok, err := s.Get(ctx, "h", "c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_NotOpen(t *testing.T) {
	ctx := context.Background()
	s := &cache.Store{}

	_, _, err := s.Get(ctx, "h", "c")
	assert.ErrorIs(t, err, cache.ErrNotOpen)
	assert.ErrorIs(t, s.Put(ctx, "h", "c", lint.Report{}), cache.ErrNotOpen)
	assert.ErrorIs(t, s.Purge(ctx), cache.ErrNotOpen)
	_, err = s.Invalidate(ctx, "h")
	assert.ErrorIs(t, err, cache.ErrNotOpen)
	assert.NoError(t, s.Close())
}

func TestStore_DatabaseErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		run       func(s *cache.Store) error
		errMsg    string
	}{
		{
			name: "get",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT report FROM reports").WithArgs("h", "c").WillReturnError(boom)
			},
			run: func(s *cache.Store) error {
				_, _, err := s.Get(ctx, "h", "c")
				return err
			},
			errMsg: "failed to get cached report",
		},
		{
			name: "put",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO reports").WillReturnError(boom)
			},
			run: func(s *cache.Store) error {
				return s.Put(ctx, "h", "c", sampleReport())
			},
			errMsg: "failed to store report",
		},
		{
			name: "invalidate",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM reports WHERE content_hash").WithArgs("h").WillReturnError(boom)
			},
			run: func(s *cache.Store) error {
				_, err := s.Invalidate(ctx, "h")
				return err
			},
			errMsg: "failed to invalidate report",
		},
		{
			name: "stats",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)
			},
			run: func(s *cache.Store) error {
				_, err := s.Stats(ctx)
				return err
			},
			errMsg: "failed to read cache stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			err = tt.run(cache.NewWithDB(db, nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, boom)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_CorruptEntryIsDropped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT report FROM reports").
		WithArgs("h", "c").
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow("{not json"))
	mock.ExpectExec("DELETE FROM reports WHERE content_hash").
		WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, ok, err := cache.NewWithDB(db, nil).Get(context.Background(), "h", "c")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
