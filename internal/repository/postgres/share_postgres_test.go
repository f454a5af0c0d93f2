package postgres

import (
	"context"
	"encoding/json"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/repository"
)

var (
	sharedDocCols = []string{"id", "owner_id", "owner_name", "file_name", "file_path", "settings", "placements", "created_at"}
	memberCols    = []string{"id", "file_id", "position", "user_name", "email", "role", "password_hash", "allowed_formats", "status", "next_id", "signed_file_path", "created_at", "updated_at"}
	scheduleCols  = []string{"id", "file_id", "kind", "period_days", "next_notify", "status", "created_at"}
)

func TestSharePostgres_Create(t *testing.T) {
	now := time.Now().UTC()
	assigned := []editor.Placement{
		{ID: "pl-1", Type: editor.TypeSignature, Page: 1, X: 10, Y: 20, Width: 120, Height: 40, AssignedTo: "ann@example.com"},
	}
	doc := &model.SharedDoc{
		ID:         "file-1",
		OwnerID:    "user-1",
		FileName:   "a.pdf",
		FilePath:   "esign-docs/shared/file-1/a.pdf",
		Settings:   editor.DefaultShareSettings(),
		Placements: assigned,
		CreatedAt:  now,
	}
	settings := []byte(`[{"key":"emailNotifications","value":""},{"key":"reminder","value":"1"}]`)
	placements, err := json.Marshal(doc.Placements)
	require.NoError(t, err)
	members := []model.Member{
		{ID: "m-1", Position: 0, UserName: "Ann", Email: "ann@example.com", Role: editor.RoleSigner,
			PasswordHash: "hash", AllowedFormats: []editor.Format{editor.FormatAll}, Status: model.MemberPending, NextID: "m-2"},
		{ID: "m-2", Position: 1, UserName: "Bob", Email: "bob@example.com", Role: editor.RoleViewer,
			AllowedFormats: []editor.Format{}, Status: model.MemberPending},
	}
	schedules := []model.Schedule{
		{ID: "s-1", Kind: model.ScheduleReminder, PeriodDays: 1, NextNotify: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: model.ScheduleActive},
	}

	t.Run("commits everything", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO esign_docs").
			WithArgs(doc.ID, doc.OwnerID, doc.OwnerName, doc.FileName, doc.FilePath, settings, placements, doc.CreatedAt).
			WillReturnRows(sqlmock.NewRows(sharedDocCols).
				AddRow(doc.ID, doc.OwnerID, doc.OwnerName, doc.FileName, doc.FilePath, settings, placements, now))
		mock.ExpectExec("INSERT INTO esign_members").
			WithArgs("m-1", "file-1", 0, "Ann", "ann@example.com", "signer", "hash", []byte(`["all"]`), "pending", "m-2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO esign_members").
			WithArgs("m-2", "file-1", 1, "Bob", "bob@example.com", "viewer", nil, []byte(`[]`), "pending", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO esign_schedules").
			WithArgs("s-1", "file-1", "reminder", 1, "2026-03-02", "active").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := NewSharePostgres(db).Create(context.Background(), doc, members, schedules)
		require.NoError(t, err)
		assert.Equal(t, doc.Settings, got.Settings)
		assert.Equal(t, doc.Placements, got.Placements)
		assert.Equal(t, "ann@example.com", got.PlacementsFor("ANN@example.com")[0].AssignedTo)
		assert.Empty(t, got.PlacementsFor("bob@example.com"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO esign_docs").
			WillReturnRows(sqlmock.NewRows(sharedDocCols).
				AddRow(doc.ID, doc.OwnerID, doc.OwnerName, doc.FileName, doc.FilePath, settings, placements, now))
		mock.ExpectExec("INSERT INTO esign_members").WillReturnError(errors.New("unique violation"))
		mock.ExpectRollback()

		_, err = NewSharePostgres(db).Create(context.Background(), doc, members, schedules)
		assert.ErrorContains(t, err, "insert esign_members: unique violation")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSharePostgres_ListDocs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM esign_docs").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM esign_docs d LEFT JOIN esign_members m").
		WithArgs("user-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(append(sharedDocCols, "members", "signed", "pending")).
			AddRow("file-1", "user-1", "Owner", "a.pdf", "p", []byte(`[]`), nil, time.Now(), 3, 1, 2))

	res, err := NewSharePostgres(db).ListDocs(context.Background(), "user-1", repository.PageQuery{Limit: 20})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.Items[0].Members)
	assert.Equal(t, 1, res.Items[0].Signed)
	assert.Equal(t, 2, res.Items[0].Pending)
	assert.Empty(t, res.Items[0].Settings)
	assert.Equal(t, []editor.Placement{}, res.Items[0].Placements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharePostgres_Members(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM esign_members WHERE file_id = \\$1 ORDER BY position").
		WithArgs("file-1").
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow("m-1", "file-1", 0, "Ann", "ann@example.com", "signer", "hash", []byte(`["draw"]`), "signed", "m-2", "esign-docs/signed/m-1.pdf", now, now).
			AddRow("m-2", "file-1", 1, "Bob", "bob@example.com", "signer", nil, nil, "pending", nil, nil, now, now))

	members, err := repo.ListMembers(context.Background(), "file-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.True(t, members[0].Protected())
	assert.Equal(t, []editor.Format{editor.FormatDraw}, members[0].AllowedFormats)
	assert.Equal(t, "m-2", members[0].NextID)
	assert.False(t, members[1].Protected())
	assert.Empty(t, members[1].NextID)
	assert.Equal(t, []editor.Format{}, members[1].AllowedFormats)

	mock.ExpectQuery("SELECT (.+) FROM esign_members WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindMember(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharePostgres_MarkSigned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)

	mock.ExpectExec("UPDATE esign_members SET status = 'signed'").
		WithArgs("m-1", "esign-docs/signed/m-1.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkSigned(context.Background(), "m-1", "esign-docs/signed/m-1.pdf"))

	mock.ExpectExec("UPDATE esign_members SET status = 'signed'").
		WithArgs("m-1", "x").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkSigned(context.Background(), "m-1", "x"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharePostgres_Schedules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("FROM esign_schedules WHERE status = 'active' AND kind = \\$1").
		WithArgs("expireDate", "2026-03-02").
		WillReturnRows(sqlmock.NewRows(scheduleCols).
			AddRow("s-1", "file-1", "expireDate", 15, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "active", time.Now()))
	due, err := repo.DueSchedules(ctx, model.ScheduleExpire, day)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, model.ScheduleExpire, due[0].Kind)
	assert.Equal(t, 15, due[0].PeriodDays)

	mock.ExpectExec("UPDATE esign_members SET status = 'expired'").
		WithArgs("file-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.ExpireMembers(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectExec("UPDATE esign_schedules SET status").
		WithArgs("s-1", "expired").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetScheduleStatus(ctx, "s-1", model.ScheduleExpired))

	mock.ExpectExec("UPDATE esign_schedules SET next_notify").
		WithArgs("s-2", "2026-03-03").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AdvanceSchedule(ctx, "s-2", day.AddDate(0, 0, 1)))

	assert.NoError(t, mock.ExpectationsWereMet())
}
