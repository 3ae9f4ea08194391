package database

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	sqlErr := errors.New("syntax error at or near")

	err := withRetry(context.Background(), "op", testLogger(), isConnectionError, func() error {
		calls++
		return sqlErr
	})

	assert.ErrorIs(t, err, sqlErr)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, "op", nil, isConnectionError, func() error {
		return errors.New("dial tcp 127.0.0.1:5432: connection refused")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, isConnectionError(errors.New("connection reset by peer")))
	assert.True(t, isConnectionError(errors.New("could not connect to server")))
	assert.False(t, isConnectionError(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, isConnectionError(errors.New("relation does not exist")))
}

func TestPendingMigrations_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_likes.up.sql":     {Data: []byte("CREATE TABLE likes ();")},
		"001_reviews.up.sql":   {Data: []byte("CREATE TABLE reviews ();")},
		"001_reviews.down.sql": {Data: []byte("DROP TABLE reviews;")},
		"README.md":            {Data: []byte("notes")},
	}

	names, err := PendingMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_reviews.up.sql", "002_likes.up.sql"}, names)
}

func TestRunMigrations_SkipsAppliedAndAppliesNew(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{
		"001_reviews.up.sql": {Data: []byte("CREATE TABLE reviews ();")},
		"002_likes.up.sql":   {Data: []byte("CREATE TABLE likes ();")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_reviews.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_likes.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE likes").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_likes.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, fsys, testLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackFailedMigration(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{
		"001_reviews.up.sql": {Data: []byte("CREATE TABLE reviews ();")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_reviews.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE reviews").WillReturnError(errors.New("syntax error at or near"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, fsys, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_reviews.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
