package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/repository"
)

var sessionCols = []string{"id", "owner_id", "document_id", "state", "version", "created_at", "updated_at"}

func testEditorSession(t *testing.T) (*model.EditorSession, []byte) {
	t.Helper()
	state := editor.NewSession("sess-1", "user-1", editor.FileRef{DocumentID: "doc-1", FileName: "a.pdf"}, 2, &editor.SequenceGenerator{})
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &model.EditorSession{
		ID:         "sess-1",
		OwnerID:    "user-1",
		DocumentID: "doc-1",
		State:      state,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, raw
}

func TestSessionPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec, raw := testEditorSession(t)
	mock.ExpectQuery("INSERT INTO editor_sessions").
		WithArgs(rec.ID, rec.OwnerID, rec.DocumentID, raw, rec.CreatedAt).
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow(rec.ID, rec.OwnerID, rec.DocumentID, raw, 1, rec.CreatedAt, rec.UpdatedAt))

	got, err := NewSessionPostgres(db).Create(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "a.pdf", got.State.File.FileName)
	assert.Equal(t, 2, got.State.NumPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionPostgres(db)
	rec, raw := testEditorSession(t)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM editor_sessions WHERE id").
			WithArgs("sess-1").
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(rec.ID, rec.OwnerID, rec.DocumentID, raw, 4, rec.CreatedAt, rec.UpdatedAt))

		got, err := repo.FindByID(context.Background(), "sess-1")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Version)
		assert.Equal(t, editor.DefaultShareSettings(), got.State.ShareSettings)
	})

	t.Run("corrupt state", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM editor_sessions WHERE id").
			WithArgs("sess-2").
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow("sess-2", "user-1", "doc-1", []byte("{"), 1, rec.CreatedAt, rec.UpdatedAt))

		_, err := repo.FindByID(context.Background(), "sess-2")
		assert.ErrorContains(t, err, "decode session sess-2")
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM editor_sessions WHERE id").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionPostgres(db)
	rec, raw := testEditorSession(t)

	t.Run("bumps version", func(t *testing.T) {
		mock.ExpectQuery("UPDATE editor_sessions SET state = \\$1, version = version \\+ 1").
			WithArgs(raw, rec.ID, int64(1)).
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(rec.ID, rec.OwnerID, rec.DocumentID, raw, 2, rec.CreatedAt, time.Now()))

		got, err := repo.Update(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		mock.ExpectQuery("UPDATE editor_sessions").
			WithArgs(raw, rec.ID, int64(1)).
			WillReturnRows(sqlmock.NewRows(sessionCols))

		_, err := repo.Update(context.Background(), rec)
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM editor_sessions WHERE id").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewSessionPostgres(db).Delete(context.Background(), "sess-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
