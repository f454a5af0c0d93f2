package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/pdfinfo/pdftest"
	"esignapi/internal/repository"
	repoMocks "esignapi/internal/repository/mocks"
	"esignapi/internal/storage"
	storeMocks "esignapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeNotifier struct {
	mock.Mock
}

func (m *fakeNotifier) SignatureRequest(ctx context.Context, n Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *fakeNotifier) Reminder(ctx context.Context, n Notice) error {
	return m.Called(ctx, n).Error(0)
}

var shareNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type shareFixture struct {
	svc      ShareService
	repo     *repoMocks.MockShareRepository
	store    *storeMocks.MockStorage
	notifier *fakeNotifier
	sessions *sessionFixture
}

func newShareFixture() *shareFixture {
	sf := newSessionFixture(1)
	f := &shareFixture{
		repo:     new(repoMocks.MockShareRepository),
		store:    sf.store,
		notifier: new(fakeNotifier),
		sessions: sf,
	}
	svc := NewShareService(f.repo, sf.svc, f.store, f.notifier, nil, nil).(*shareService)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return shareNow }
	f.svc = svc
	return f
}

func withReorder(t *testing.T) editor.ShareSettings {
	t.Helper()
	s, err := editor.DefaultShareSettings().Toggle(editor.SettingReorder)
	require.NoError(t, err)
	return s
}

func twoUsers() []SharedUser {
	return []SharedUser{
		{UserName: "Ann", UserEmail: "ann@example.com", UserPassword: "secret", UserRole: editor.RoleSigner},
		{UserName: "", UserEmail: "bob@example.com"},
	}
}

func TestShareService_Share(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()

	var shared string
	f.store.On("Copy", ctx, "esign-docs/temp/a.pdf", mock.MatchedBy(func(dst string) bool {
		shared = dst
		return strings.HasPrefix(dst, storage.PrefixShared)
	})).Return(storage.ObjectInfo{}, nil)

	f.repo.On("Create", ctx,
		mock.MatchedBy(func(doc *model.SharedDoc) bool {
			return doc.OwnerID == "user-1" && doc.OwnerName == "Owner" && doc.FileName == "contract.pdf" && doc.FilePath == shared &&
				len(doc.Placements) == 1 && doc.Placements[0].AssignedTo == "ann@example.com"
		}),
		mock.MatchedBy(func(ms []model.Member) bool {
			if len(ms) != 2 || ms[0].NextID != "" || ms[1].UserName != "Unknown" || ms[1].Protected() {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(ms[0].PasswordHash), []byte("secret")) == nil &&
				ms[1].Position == 1 && ms[1].Status == model.MemberPending
		}),
		mock.MatchedBy(func(ss []model.Schedule) bool {
			return len(ss) == 1 && ss[0].Kind == model.ScheduleReminder && ss[0].PeriodDays == 1 &&
				ss[0].NextNotify.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		}),
	).Return(&model.SharedDoc{ID: "file-1", OwnerName: "Owner"}, nil)

	f.notifier.On("SignatureRequest", ctx, mock.MatchedBy(func(n Notice) bool {
		return n.OwnerName == "Owner" && n.MemberEmail == "ann@example.com"
	})).Return(nil).Once()
	f.notifier.On("SignatureRequest", ctx, mock.MatchedBy(func(n Notice) bool {
		return n.MemberEmail == "bob@example.com"
	})).Return(errors.New("smtp down")).Once()

	res, err := f.svc.Share(ctx, Owner{ID: "user-1", Name: "Owner"}, ShareRequest{
		FilePath:    "esign-docs/temp/a.pdf",
		FileName:    "contract.pdf",
		SharedUsers: twoUsers(),
		Placements: []editor.Placement{
			{ID: "pl-1", Type: editor.TypeFullName, Page: 0, Text: "Ann", AssignedTo: "ann@example.com"},
		},
	})
	require.NoError(t, err, "mail failures do not fail the share")
	assert.Equal(t, "file-1", res.Doc.ID)
	assert.Len(t, res.Members, 2)

	f.store.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestShareService_ShareSequential(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	settings := withReorder(t)
	settings = settings.SetValue(editor.SettingReminder, "3")
	settings, err := settings.Toggle(editor.SettingExpireDate)
	require.NoError(t, err)

	f.store.On("Copy", ctx, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	f.repo.On("Create", ctx, mock.Anything,
		mock.MatchedBy(func(ms []model.Member) bool {
			return len(ms) == 2 && ms[0].NextID == ms[1].ID && ms[1].NextID == ""
		}),
		mock.MatchedBy(func(ss []model.Schedule) bool {
			return len(ss) == 2 &&
				ss[0].Kind == model.ScheduleReminder && ss[0].NextNotify.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) &&
				ss[1].Kind == model.ScheduleExpire && ss[1].PeriodDays == 15
		}),
	).Return(&model.SharedDoc{ID: "file-1"}, nil)
	f.notifier.On("SignatureRequest", ctx, mock.MatchedBy(func(n Notice) bool {
		return n.MemberEmail == "ann@example.com"
	})).Return(nil).Once()

	_, err = f.svc.Share(ctx, Owner{ID: "user-1"}, ShareRequest{
		FilePath:    "esign-docs/temp/a.pdf",
		SharedUsers: twoUsers(),
		Settings:    settings,
	})
	require.NoError(t, err)
	f.notifier.AssertNumberOfCalls(t, "SignatureRequest", 1)
	f.repo.AssertExpectations(t)
}

func TestShareService_ShareErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid recipients", func(t *testing.T) {
		f := newShareFixture()
		_, err := f.svc.Share(ctx, Owner{ID: "user-1"}, ShareRequest{
			FilePath:    "esign-docs/temp/a.pdf",
			SharedUsers: []SharedUser{{UserName: "Ann", UserEmail: "nope"}},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, editor.MsgInvalidEmail, verr.Errors["recipient-1"]["email"])
		f.store.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no recipients", func(t *testing.T) {
		f := newShareFixture()
		_, err := f.svc.Share(ctx, Owner{ID: "user-1"}, ShareRequest{FilePath: "esign-docs/temp/a.pdf"})
		assert.ErrorIs(t, err, editor.ErrNoRecipients)
	})

	t.Run("path outside temp", func(t *testing.T) {
		f := newShareFixture()
		_, err := f.svc.Share(ctx, Owner{ID: "user-1"}, ShareRequest{FilePath: "/etc/passwd", SharedUsers: twoUsers()})
		assert.ErrorIs(t, err, ErrDocumentUnhandled)
	})

	t.Run("missing owner", func(t *testing.T) {
		f := newShareFixture()
		_, err := f.svc.Share(ctx, Owner{}, ShareRequest{})
		assert.ErrorIs(t, err, ErrOwnerRequired)
	})

	t.Run("db failure rolls back copy", func(t *testing.T) {
		f := newShareFixture()
		var shared string
		f.store.On("Copy", ctx, mock.Anything, mock.MatchedBy(func(dst string) bool { shared = dst; return true })).
			Return(storage.ObjectInfo{}, nil)
		f.repo.On("Create", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		f.store.On("Delete", ctx, mock.MatchedBy(func(key string) bool { return key == shared })).Return(nil)

		_, err := f.svc.Share(ctx, Owner{ID: "user-1"}, ShareRequest{FilePath: "esign-docs/temp/a.pdf", SharedUsers: twoUsers()})
		assert.EqualError(t, err, "db save failed: db fail")
		f.store.AssertExpectations(t)
	})
}

func TestShareService_ShareSession(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	st := f.sessions.existing.State
	f.sessions.repo.On("FindByID", ctx, "sess-1").Return(f.sessions.existing, nil)

	_, err := f.svc.ShareSession(ctx, Owner{ID: "user-1"}, "sess-1")
	assert.ErrorIs(t, err, editor.ErrNoPlacements)

	st.ApplySignatures(editor.Author(editor.AuthorInput{FullName: "A"}, f.sessions.gen))
	pl, err := st.AddPlacement(st.Signatures[0].ID, 0)
	require.NoError(t, err)

	_, err = f.svc.ShareSession(ctx, Owner{ID: "user-1"}, "sess-1")
	assert.ErrorIs(t, err, editor.ErrUnassigned)

	st.SetRecipients(editor.ShareSubmission{
		Recipients: []editor.Recipient{{ID: "r1", Name: "Ann", Email: "ann@example.com", Role: editor.RoleSigner, AllowedFormats: []editor.Format{editor.FormatAll}}},
		Settings:   editor.ShareSettings{},
	})
	require.NoError(t, st.AssignPlacement(pl.ID, "ann@example.com"))

	f.store.On("Copy", ctx, "esign-docs/temp/a.pdf", mock.Anything).Return(storage.ObjectInfo{}, nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.SharedDoc) bool {
		return doc.FileName == "a.pdf" && len(doc.Settings) == 0 &&
			len(doc.Placements) == 1 && doc.Placements[0].ID == pl.ID && doc.Placements[0].AssignedTo == "ann@example.com"
	}), mock.Anything, []model.Schedule(nil)).Return(&model.SharedDoc{ID: "file-1"}, nil)
	f.sessions.repo.On("Update", ctx, mock.Anything).Return(func(s *model.EditorSession) *model.EditorSession {
		out := *s
		out.Version++
		return &out
	}, nil).Once()

	res, err := f.svc.ShareSession(ctx, Owner{ID: "user-1"}, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.Members[0].Email)
	f.notifier.AssertNotCalled(t, "SignatureRequest", mock.Anything, mock.Anything)

	// A shared session is reset so resubmitting cannot share it twice.
	f.sessions.repo.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(s *model.EditorSession) bool {
		return s.ID == "sess-1" && len(s.State.Signatures) == 0 && len(s.State.Recipients) == 0
	}))
	assert.Empty(t, st.Placements())
	_, err = f.svc.ShareSession(ctx, Owner{ID: "user-1"}, "sess-1")
	assert.ErrorIs(t, err, editor.ErrNoPlacements)
	f.repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestShareService_ShareSession_ResetFailure(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	st := f.sessions.existing.State
	f.sessions.repo.On("FindByID", ctx, "sess-1").Return(f.sessions.existing, nil)
	f.sessions.repo.On("Update", ctx, mock.Anything).Return(nil, repository.ErrConflict)

	st.ApplySignatures(editor.Author(editor.AuthorInput{FullName: "A"}, f.sessions.gen))
	pl, err := st.AddPlacement(st.Signatures[0].ID, 0)
	require.NoError(t, err)
	st.SetRecipients(editor.ShareSubmission{
		Recipients: []editor.Recipient{{ID: "r1", Name: "Ann", Email: "ann@example.com", Role: editor.RoleSigner, AllowedFormats: []editor.Format{editor.FormatAll}}},
		Settings:   editor.ShareSettings{},
	})
	require.NoError(t, st.AssignPlacement(pl.ID, "ann@example.com"))

	f.store.On("Copy", ctx, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	f.repo.On("Create", ctx, mock.Anything, mock.Anything, mock.Anything).Return(&model.SharedDoc{ID: "file-1"}, nil)

	res, err := f.svc.ShareSession(ctx, Owner{ID: "user-1"}, "sess-1")
	require.NoError(t, err, "the share is stored even when the reset fails")
	assert.Equal(t, "file-1", res.Doc.ID)
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestShareService_Info(t *testing.T) {
	ctx := context.Background()
	doc := &model.SharedDoc{ID: "file-1", FilePath: "esign-docs/shared/file-1.pdf", Settings: editor.DefaultShareSettings()}

	tests := []struct {
		name     string
		member   *model.Member
		password string
		doc      *model.SharedDoc
		members  []model.Member
		wantPath string
		wantErr  error
	}{
		{
			name:     "open share",
			member:   &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending},
			doc:      doc,
			wantPath: "esign-docs/shared/file-1.pdf",
		},
		{
			name:    "password required",
			member:  &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending, PasswordHash: hashed(t, "pw")},
			doc:     doc,
			wantErr: ErrPasswordRequired,
		},
		{
			name:     "wrong password",
			member:   &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending, PasswordHash: hashed(t, "pw")},
			password: "nope",
			doc:      doc,
			wantErr:  ErrWrongPassword,
		},
		{
			name:     "right password",
			member:   &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending, PasswordHash: hashed(t, "pw")},
			password: "pw",
			doc:      doc,
			wantPath: "esign-docs/shared/file-1.pdf",
		},
		{
			name:    "expired",
			member:  &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberExpired},
			doc:     doc,
			wantErr: ErrExpired,
		},
		{
			name:     "signed member sees own copy",
			member:   &model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberSigned, SignedFilePath: "esign-docs/signed/file-1/m-1.pdf"},
			doc:      doc,
			wantPath: "esign-docs/signed/file-1/m-1.pdf",
		},
		{
			name:   "sequential, previous not signed",
			member: &model.Member{ID: "m-2", FileID: "file-1", Status: model.MemberPending},
			doc:    &model.SharedDoc{ID: "file-1", FilePath: "esign-docs/shared/file-1.pdf", Settings: withReorder(t)},
			members: []model.Member{
				{ID: "m-1", NextID: "m-2", Status: model.MemberPending},
				{ID: "m-2", Status: model.MemberPending},
			},
			wantErr: ErrNotYourTurn,
		},
		{
			name:   "sequential, previous signed",
			member: &model.Member{ID: "m-2", FileID: "file-1", Status: model.MemberPending},
			doc:    &model.SharedDoc{ID: "file-1", FilePath: "esign-docs/shared/file-1.pdf", Settings: withReorder(t)},
			members: []model.Member{
				{ID: "m-1", NextID: "m-2", Status: model.MemberSigned, SignedFilePath: "esign-docs/signed/file-1/m-1.pdf"},
				{ID: "m-2", Status: model.MemberPending},
			},
			wantPath: "esign-docs/signed/file-1/m-1.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newShareFixture()
			f.repo.On("FindMember", ctx, tt.member.ID).Return(tt.member, nil)
			f.repo.On("FindDoc", ctx, "file-1").Return(tt.doc, nil)
			f.repo.On("ListMembers", ctx, "file-1").Return(tt.members, nil).Maybe()
			if tt.wantPath != "" {
				f.store.On("PresignGet", ctx, tt.wantPath, PresignTTL).Return("https://minio/"+tt.wantPath, nil)
			}

			info, err := f.svc.Info(ctx, tt.member.ID, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, info)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, info.FilePath)
			assert.Equal(t, "https://minio/"+tt.wantPath, info.DownloadURL)
		})
	}

	t.Run("unknown member", func(t *testing.T) {
		f := newShareFixture()
		f.repo.On("FindMember", ctx, "missing").Return(nil, sql.ErrNoRows)
		_, err := f.svc.Info(ctx, "missing", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("only the member's placements", func(t *testing.T) {
		f := newShareFixture()
		placed := &model.SharedDoc{ID: "file-1", FilePath: "esign-docs/shared/file-1.pdf", Placements: []editor.Placement{
			{ID: "pl-1", Type: editor.TypeSignature, AssignedTo: "Ann@Example.com"},
			{ID: "pl-2", Type: editor.TypeInitials, AssignedTo: "bob@example.com"},
			{ID: "pl-3", Type: editor.TypeFullName, AssignedTo: "ann@example.com"},
		}}
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Email: "ann@example.com", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(placed, nil)
		f.store.On("PresignGet", ctx, "esign-docs/shared/file-1.pdf", PresignTTL).Return("https://minio/x", nil)

		info, err := f.svc.Info(ctx, "m-1", "")
		require.NoError(t, err)
		ids := make([]string, len(info.Placements))
		for i, p := range info.Placements {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"pl-1", "pl-3"}, ids)
		assert.Len(t, info.Doc.Placements, 3)
	})
}

func TestShareService_Download(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	f.store.On("Get", ctx, "esign-docs/shared/f.pdf").Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{Size: 4}, nil)

	rc, info, err := f.svc.Download(ctx, "esign-docs/shared/f.pdf")
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, int64(4), info.Size)

	for _, p := range []string{"esign-docs/temp/f.pdf", "esign-docs/shared/../temp/f.pdf", "/etc/passwd"} {
		_, _, err := f.svc.Download(ctx, p)
		assert.ErrorIs(t, err, ErrNotFound, p)
	}
	_, _, err = f.svc.Download(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestShareService_UploadSigned(t *testing.T) {
	ctx := context.Background()
	pdf := pdftest.Minimal(1)
	doc := &model.SharedDoc{ID: "file-1", OwnerName: "Owner", Settings: editor.DefaultShareSettings()}

	signedKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "esign-docs/signed/file-1/m-1-") && strings.HasSuffix(key, ".pdf")
	})

	t.Run("signs and notifies next", func(t *testing.T) {
		f := newShareFixture()
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending, NextID: "m-2"}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)
		f.store.On("Put", ctx, signedKey, mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.Size == int64(len(pdf))
		})).Return(storage.ObjectInfo{}, nil)
		f.repo.On("MarkSigned", ctx, "m-1", signedKey).Return(nil)
		f.repo.On("FindMember", ctx, "m-2").Return(&model.Member{ID: "m-2", Email: "bob@example.com", Status: model.MemberPending}, nil)
		f.notifier.On("SignatureRequest", ctx, Notice{OwnerName: "Owner", MemberEmail: "bob@example.com", MemberID: "m-2"}).Return(nil)

		res, err := f.svc.UploadSigned(ctx, "m-1", bytes.NewReader(pdf))
		require.NoError(t, err)
		assert.Equal(t, model.MemberSigned, res.Member.Status)
		assert.Equal(t, res.FilePath, res.Member.SignedFilePath)
		assert.Equal(t, "m-2", res.Next.ID)
		f.notifier.AssertExpectations(t)
		f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("each upload gets its own key", func(t *testing.T) {
		f := newShareFixture()
		var keys []string
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)
		f.store.On("Put", ctx, signedKey, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				keys = append(keys, key)
				return storage.ObjectInfo{Key: key}
			}, nil)
		f.repo.On("MarkSigned", ctx, "m-1", signedKey).Return(nil)

		for range 2 {
			_, err := f.svc.UploadSigned(ctx, "m-1", bytes.NewReader(pdf))
			require.NoError(t, err)
		}
		require.Len(t, keys, 2)
		assert.NotEqual(t, keys[0], keys[1])
	})

	t.Run("raced to signed keeps the winner's copy", func(t *testing.T) {
		f := newShareFixture()
		const winner = "esign-docs/signed/file-1/m-1-winner.pdf"
		var lost string
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending}, nil).Once()
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)
		f.store.On("Put", ctx, mock.MatchedBy(func(key string) bool { lost = key; return true }), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.repo.On("MarkSigned", ctx, "m-1", signedKey).Return(sql.ErrNoRows)
		f.store.On("Delete", ctx, signedKey).Return(nil)
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberSigned, SignedFilePath: winner}, nil).Once()

		res, err := f.svc.UploadSigned(ctx, "m-1", bytes.NewReader(pdf))
		assert.ErrorIs(t, err, ErrAlreadySigned)
		require.NotNil(t, res)
		assert.Equal(t, winner, res.FilePath)
		assert.NotEqual(t, winner, lost)
		f.store.AssertCalled(t, "Delete", ctx, lost)
	})

	t.Run("mark failure deletes the upload", func(t *testing.T) {
		f := newShareFixture()
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)
		f.store.On("Put", ctx, signedKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
		f.repo.On("MarkSigned", ctx, "m-1", signedKey).Return(errors.New("db down"))
		f.store.On("Delete", ctx, signedKey).Return(nil)

		_, err := f.svc.UploadSigned(ctx, "m-1", bytes.NewReader(pdf))
		assert.EqualError(t, err, "mark signed: db down")
		f.store.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("sequential, previous not signed", func(t *testing.T) {
		f := newShareFixture()
		seq := &model.SharedDoc{ID: "file-1", Settings: withReorder(t)}
		f.repo.On("FindMember", ctx, "m-2").Return(&model.Member{ID: "m-2", FileID: "file-1", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(seq, nil)
		f.repo.On("ListMembers", ctx, "file-1").Return([]model.Member{
			{ID: "m-1", NextID: "m-2", Status: model.MemberPending},
			{ID: "m-2", Status: model.MemberPending},
		}, nil)

		res, err := f.svc.UploadSigned(ctx, "m-2", bytes.NewReader(pdf))
		assert.ErrorIs(t, err, ErrNotYourTurn)
		assert.Nil(t, res)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "MarkSigned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sequential, previous signed", func(t *testing.T) {
		f := newShareFixture()
		seq := &model.SharedDoc{ID: "file-1", Settings: withReorder(t)}
		f.repo.On("FindMember", ctx, "m-2").Return(&model.Member{ID: "m-2", FileID: "file-1", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(seq, nil)
		f.repo.On("ListMembers", ctx, "file-1").Return([]model.Member{
			{ID: "m-1", NextID: "m-2", Status: model.MemberSigned},
			{ID: "m-2", Status: model.MemberPending},
		}, nil)
		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
		f.repo.On("MarkSigned", ctx, "m-2", mock.Anything).Return(nil)

		res, err := f.svc.UploadSigned(ctx, "m-2", bytes.NewReader(pdf))
		require.NoError(t, err)
		assert.Nil(t, res.Next)
	})

	t.Run("expired", func(t *testing.T) {
		f := newShareFixture()
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberExpired}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)

		_, err := f.svc.UploadSigned(ctx, "m-1", bytes.NewReader(pdf))
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("not a pdf", func(t *testing.T) {
		f := newShareFixture()
		f.repo.On("FindMember", ctx, "m-1").Return(&model.Member{ID: "m-1", FileID: "file-1", Status: model.MemberPending}, nil)
		f.repo.On("FindDoc", ctx, "file-1").Return(doc, nil)

		_, err := f.svc.UploadSigned(ctx, "m-1", strings.NewReader("text"))
		assert.ErrorIs(t, err, ErrInvalidPDF)
	})
}

func TestShareService_OwnerDocInfo(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	f.repo.On("FindDoc", ctx, "file-1").Return(&model.SharedDoc{ID: "file-1", OwnerID: "user-1"}, nil)
	f.repo.On("ListMembers", ctx, "file-1").Return([]model.Member{{ID: "m-1"}}, nil)
	f.repo.On("FindDoc", ctx, "gone").Return(nil, sql.ErrNoRows)

	info, err := f.svc.OwnerDocInfo(ctx, "user-1", "file-1")
	require.NoError(t, err)
	assert.Len(t, info.Members, 1)

	_, err = f.svc.OwnerDocInfo(ctx, "user-2", "file-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.OwnerDocInfo(ctx, "user-1", "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.OwnerDocInfo(ctx, "user-1", "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestShareService_ExpireDue(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	f.repo.On("DueSchedules", ctx, model.ScheduleExpire, day).Return([]model.Schedule{
		{ID: "s-1", FileID: "file-1"},
		{ID: "s-2", FileID: "file-2"},
	}, nil)
	f.repo.On("ExpireMembers", ctx, "file-1").Return(int64(2), nil)
	f.repo.On("SetScheduleStatus", ctx, "s-1", model.ScheduleExpired).Return(nil)
	f.repo.On("ExpireMembers", ctx, "file-2").Return(int64(0), errors.New("db fail"))

	n, err := f.svc.ExpireDue(ctx, day.Add(13*time.Hour))
	assert.Equal(t, int64(2), n)
	assert.ErrorContains(t, err, "expire file-2: db fail")
	f.repo.AssertExpectations(t)
}

func TestShareService_RemindDue(t *testing.T) {
	ctx := context.Background()
	f := newShareFixture()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seq := &model.SharedDoc{ID: "file-1", OwnerName: "Owner", Settings: withReorder(t)}

	f.repo.On("DueSchedules", ctx, model.ScheduleReminder, day).Return([]model.Schedule{
		{ID: "s-1", FileID: "file-1", PeriodDays: 2},
		{ID: "s-2", FileID: "file-2", PeriodDays: 1},
	}, nil)

	f.repo.On("FindDoc", ctx, "file-1").Return(seq, nil)
	f.repo.On("ListMembers", ctx, "file-1").Return([]model.Member{
		{ID: "m-1", Email: "a@example.com", NextID: "m-2", Status: model.MemberSigned},
		{ID: "m-2", Email: "b@example.com", NextID: "m-3", Status: model.MemberPending},
		{ID: "m-3", Email: "c@example.com", Status: model.MemberPending},
	}, nil)
	f.notifier.On("Reminder", ctx, mock.MatchedBy(func(n Notice) bool { return n.MemberID == "m-2" })).Return(nil).Once()
	f.repo.On("AdvanceSchedule", ctx, "s-1", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)).Return(nil)

	f.repo.On("FindDoc", ctx, "file-2").Return(&model.SharedDoc{ID: "file-2"}, nil)
	f.repo.On("ListMembers", ctx, "file-2").Return([]model.Member{{ID: "x", Status: model.MemberSigned}}, nil)
	f.repo.On("SetScheduleStatus", ctx, "s-2", model.ScheduleInactive).Return(nil)

	n, err := f.svc.RemindDue(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}
