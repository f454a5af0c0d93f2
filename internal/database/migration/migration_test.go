package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esignapi/internal/logging"
)

var testSteps = []Step{
	{Name: "one", SQL: "CREATE TABLE one (id INT)"},
	{Name: "two", SQL: "CREATE TABLE two (id INT)"},
}

func TestRun(t *testing.T) {
	t.Run("applies pending steps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		log := logging.New(&buf, time.UTC)

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(regexp.QuoteMeta(queryApplied)).WithArgs("one").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery(regexp.QuoteMeta(queryApplied)).WithArgs("two").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE two")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(insertLedger)).WithArgs("two").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, run(context.Background(), db, log, testSteps))
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Contains(t, buf.String(), `"migration_step":"two"`)
		assert.NotContains(t, buf.String(), `"migration_step":"one"`)
		assert.Contains(t, buf.String(), `"event":"db_migration_success"`)
	})

	t.Run("nothing to do", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		for _, s := range testSteps {
			mock.ExpectQuery(regexp.QuoteMeta(queryApplied)).WithArgs(s.Name).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		}

		require.NoError(t, run(context.Background(), db, logging.New(&buf, time.UTC), testSteps))
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Contains(t, buf.String(), `"event":"db_migration_skip"`)
	})

	t.Run("step failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(queryApplied)).WithArgs("one").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE one")).WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = run(context.Background(), db, logging.New(&buf, time.UTC), testSteps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migration step one failed: syntax error")
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Contains(t, buf.String(), `"level":"error"`)
	})

	t.Run("ledger failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnError(errors.New("permission denied"))

		err = Migrate(context.Background(), db, logging.New(&bytes.Buffer{}, time.UTC), "db")
		assert.ErrorContains(t, err, "create schema_migrations")
	})
}

func TestStepsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Steps {
		assert.False(t, seen[s.Name], "duplicate step %s", s.Name)
		seen[s.Name] = true
	}
}
