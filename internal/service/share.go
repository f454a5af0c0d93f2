package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"esignapi/internal/editor"
	"esignapi/internal/metrics"
	"esignapi/internal/model"
	"esignapi/internal/pdfinfo"
	"esignapi/internal/repository"
	"esignapi/internal/storage"
)

// PresignTTL is how long a share info download link stays valid.
const PresignTTL = 15 * time.Minute

// Owner is the authenticated user sharing documents.
type Owner struct {
	ID   string
	Name string
}

// SharedUser is one recipient in the share request body.
type SharedUser struct {
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	UserValidation []editor.Format `json:"user_validation"`
	UserPassword   string          `json:"user_password"`
	UserRole       editor.Role     `json:"user_role"`
}

// ShareRequest shares an uploaded PDF with a list of recipients.
type ShareRequest struct {
	FilePath    string               `json:"file_path"`
	FileName    string               `json:"file_name"`
	SharedUsers []SharedUser         `json:"shared_users"`
	Settings    editor.ShareSettings `json:"settings"`
	Placements  []editor.Placement   `json:"placements"`
}

// ShareResult is a stored share with its members.
type ShareResult struct {
	Doc     *model.SharedDoc `json:"doc"`
	Members []model.Member   `json:"members"`
}

// ShareInfo is what a recipient sees when opening a share link. Placements
// holds only the boxes assigned to the member.
type ShareInfo struct {
	Doc         *model.SharedDoc   `json:"doc"`
	Member      *model.Member      `json:"member"`
	Placements  []editor.Placement `json:"placements"`
	FilePath    string             `json:"file_path"`
	DownloadURL string             `json:"download_url"`
}

// SignedUpload is the outcome of a recipient uploading a signed copy.
type SignedUpload struct {
	Member   *model.Member `json:"member"`
	FilePath string        `json:"file_path"`
	Next     *model.Member `json:"next,omitempty"`
}

// OwnerDocInfo is a shared document with every member's progress.
type OwnerDocInfo struct {
	Doc     *model.SharedDoc `json:"doc"`
	Members []model.Member   `json:"members"`
}

// ShareService runs the multi-party signing workflow.
type ShareService interface {
	// Share copies a temp upload to shared storage and records the
	// recipients and follow-up schedules.
	Share(ctx context.Context, owner Owner, req ShareRequest) (*ShareResult, error)
	// ShareSession shares an editing session; every placement must be
	// assigned to a recipient. The session is cleared once the share is
	// stored.
	ShareSession(ctx context.Context, owner Owner, sessionID string) (*ShareResult, error)

	Info(ctx context.Context, memberID, password string) (*ShareInfo, error)
	// Download streams a shared or signed PDF by its storage path.
	Download(ctx context.Context, filePath string) (io.ReadCloser, storage.ObjectInfo, error)
	// UploadSigned records a member's signed copy. It returns
	// ErrAlreadySigned when the member has signed before and
	// ErrNotYourTurn while an earlier member of an ordered share is pending.
	UploadSigned(ctx context.Context, memberID string, r io.Reader) (*SignedUpload, error)

	OwnerDocs(ctx context.Context, ownerID string, limit, offset int) (*repository.PageResult[model.SharedDocSummary], error)
	OwnerDocInfo(ctx context.Context, ownerID, fileID string) (*OwnerDocInfo, error)

	// ExpireDue expires pending members of shares whose expiry is due on
	// or before day.
	ExpireDue(ctx context.Context, day time.Time) (int64, error)
	// RemindDue emails pending members of shares whose reminder is due on
	// or before day and schedules the next reminder.
	RemindDue(ctx context.Context, day time.Time) (int, error)
}

type shareService struct {
	repo     repository.ShareRepository
	sessions SessionService
	store    storage.Storage
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
	cost     int
}

// NewShareService constructs a new ShareService. m may be nil.
func NewShareService(repo repository.ShareRepository, sessions SessionService, store storage.Storage, notifier Notifier, m *metrics.Metrics, log *slog.Logger) ShareService {
	if log == nil {
		log = slog.Default()
	}
	return &shareService{
		repo:     repo,
		sessions: sessions,
		store:    store,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		cost:     bcrypt.DefaultCost,
	}
}

func (s *shareService) Share(ctx context.Context, owner Owner, req ShareRequest) (*ShareResult, error) {
	if owner.ID == "" {
		return nil, ErrOwnerRequired
	}
	if !strings.HasPrefix(req.FilePath, storage.PrefixTemp) {
		return nil, ErrDocumentUnhandled
	}

	recipients := make([]editor.Recipient, len(req.SharedUsers))
	for i, u := range req.SharedUsers {
		r := editor.NewRecipient(fmt.Sprintf("recipient-%d", i+1))
		r.Name = strings.TrimSpace(u.UserName)
		if r.Name == "" {
			r.Name = "Unknown"
		}
		r.Email = strings.TrimSpace(u.UserEmail)
		r.Password = u.UserPassword
		if u.UserRole != "" {
			r.Role = u.UserRole
		}
		if len(u.UserValidation) > 0 {
			r.AllowedFormats = u.UserValidation
		}
		recipients[i] = r
	}
	settings := req.Settings
	if settings == nil {
		settings = editor.DefaultShareSettings()
	}
	form := editor.LoadShareForm(editor.UUIDGenerator{}, recipients, settings, true)
	sub, err := form.Submit()
	if err != nil {
		if errors.Is(err, editor.ErrInvalidRecipients) {
			return nil, &ValidationError{Errors: form.Errors, Err: err}
		}
		return nil, err
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = cleanFilename(req.FilePath)
	}
	docID := uuid.New().String()
	dst := storage.PrefixShared + docID + ".pdf"
	if _, err := s.store.Copy(ctx, req.FilePath, dst); err != nil {
		return nil, fmt.Errorf("copy to shared: %w", err)
	}

	placements := req.Placements
	if placements == nil {
		placements = []editor.Placement{}
	}
	now := s.now()
	doc := &model.SharedDoc{
		ID:         docID,
		OwnerID:    owner.ID,
		OwnerName:  owner.Name,
		FileName:   fileName,
		FilePath:   dst,
		Settings:   sub.Settings,
		Placements: placements,
		CreatedAt:  now,
	}
	members, err := s.buildMembers(docID, sub.Recipients, sub.Settings.Enabled(editor.SettingReorder))
	if err != nil {
		_ = s.store.Delete(ctx, dst)
		return nil, err
	}
	schedules := buildSchedules(docID, sub.Settings, now)

	stored, err := s.repo.Create(ctx, doc, members, schedules)
	if err != nil {
		if delErr := s.store.Delete(ctx, dst); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.metrics.Shared()

	if sub.Settings.Enabled(editor.SettingEmailNotifications) {
		sequential := sub.Settings.Enabled(editor.SettingReorder)
		for i, m := range members {
			if sequential && i > 0 {
				break
			}
			s.notify(ctx, s.notifier.SignatureRequest, stored, m)
		}
	}
	return &ShareResult{Doc: stored, Members: members}, nil
}

func (s *shareService) ShareSession(ctx context.Context, owner Owner, sessionID string) (*ShareResult, error) {
	sess, err := s.sessions.Get(ctx, owner.ID, sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State
	placements := st.Placements()
	if len(placements) == 0 {
		return nil, editor.ErrNoPlacements
	}
	if err := editor.RequireAssigned(placements); err != nil {
		return nil, err
	}
	if len(st.Recipients) == 0 {
		return nil, editor.ErrNoRecipients
	}

	users := make([]SharedUser, len(st.Recipients))
	for i, r := range st.Recipients {
		users[i] = SharedUser{
			UserName:       r.Name,
			UserEmail:      r.Email,
			UserValidation: r.AllowedFormats,
			UserPassword:   r.Password,
			UserRole:       r.Role,
		}
	}
	res, err := s.Share(ctx, owner, ShareRequest{
		FilePath:    st.File.FilePath,
		FileName:    st.File.FileName,
		SharedUsers: users,
		Settings:    st.ShareSettings,
		Placements:  placements,
	})
	if err != nil {
		return nil, err
	}
	// The share is stored; a failed reset only leaves a stale draft behind.
	if _, err := s.sessions.Clear(ctx, owner.ID, sessionID); err != nil {
		s.log.WarnContext(ctx, "session_reset_failed", "session_id", sessionID, "file_id", res.Doc.ID, "error", err)
	}
	return res, nil
}

// buildMembers assigns ids, hashes passwords and, for sequential shares,
// links each member to the next one.
func (s *shareService) buildMembers(fileID string, recipients []editor.Recipient, sequential bool) ([]model.Member, error) {
	now := s.now()
	members := make([]model.Member, len(recipients))
	for i, r := range recipients {
		m := model.Member{
			ID:             uuid.New().String(),
			FileID:         fileID,
			Position:       i,
			UserName:       r.Name,
			Email:          r.Email,
			Role:           r.Role,
			AllowedFormats: r.AllowedFormats,
			Status:         model.MemberPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if r.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			m.PasswordHash = string(hash)
		}
		members[i] = m
	}
	if sequential {
		for i := 0; i < len(members)-1; i++ {
			members[i].NextID = members[i+1].ID
		}
	}
	return members, nil
}

func buildSchedules(fileID string, settings editor.ShareSettings, now time.Time) []model.Schedule {
	var out []model.Schedule
	add := func(key editor.SettingKey, kind model.ScheduleKind) {
		if !settings.Enabled(key) {
			return
		}
		days := settings.Days(key)
		out = append(out, model.Schedule{
			ID:         uuid.New().String(),
			FileID:     fileID,
			Kind:       kind,
			PeriodDays: days,
			NextNotify: dateOnly(now).AddDate(0, 0, days),
			Status:     model.ScheduleActive,
			CreatedAt:  now,
		})
	}
	add(editor.SettingReminder, model.ScheduleReminder)
	add(editor.SettingExpireDate, model.ScheduleExpire)
	return out
}

func (s *shareService) Info(ctx context.Context, memberID, password string) (*ShareInfo, error) {
	m, doc, err := s.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MemberExpired {
		return nil, ErrExpired
	}
	if m.Protected() {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) != nil {
			return nil, ErrWrongPassword
		}
	}

	filePath := doc.FilePath
	switch {
	case m.Status == model.MemberSigned && m.SignedFilePath != "":
		filePath = m.SignedFilePath
	case doc.Settings.Enabled(editor.SettingReorder):
		prev, err := s.turn(ctx, doc.ID, m.ID)
		if err != nil {
			return nil, err
		}
		// Sequential recipients sign on top of the previous signed copy.
		if prev != nil && prev.SignedFilePath != "" {
			filePath = prev.SignedFilePath
		}
	}

	link, err := s.store.PresignGet(ctx, filePath, PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &ShareInfo{
		Doc:         doc,
		Member:      m,
		Placements:  doc.PlacementsFor(m.Email),
		FilePath:    filePath,
		DownloadURL: link,
	}, nil
}

// turn returns the member's predecessor in an ordered share, or
// ErrNotYourTurn while that predecessor has not signed.
func (s *shareService) turn(ctx context.Context, fileID, memberID string) (*model.Member, error) {
	members, err := s.repo.ListMembers(ctx, fileID)
	if err != nil {
		return nil, err
	}
	prev := predecessor(members, memberID)
	if prev != nil && prev.Status != model.MemberSigned {
		return nil, ErrNotYourTurn
	}
	return prev, nil
}

func (s *shareService) Download(ctx context.Context, filePath string) (io.ReadCloser, storage.ObjectInfo, error) {
	if filePath == "" {
		return nil, storage.ObjectInfo{}, ErrIDRequired
	}
	// Only shared and signed documents are downloadable by path.
	if strings.Contains(filePath, "..") ||
		!(strings.HasPrefix(filePath, storage.PrefixShared) || strings.HasPrefix(filePath, storage.PrefixSigned)) {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	rc, info, err := s.store.Get(ctx, filePath)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("open storage: %w", err)
	}
	return rc, info, nil
}

func (s *shareService) UploadSigned(ctx context.Context, memberID string, r io.Reader) (*SignedUpload, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	m, doc, err := s.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case model.MemberSigned:
		return &SignedUpload{Member: m, FilePath: m.SignedFilePath}, ErrAlreadySigned
	case model.MemberExpired:
		return nil, ErrExpired
	}
	if doc.Settings.Enabled(editor.SettingReorder) {
		if _, err := s.turn(ctx, doc.ID, m.ID); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if _, err := pdfinfo.Inspect(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	// One key per upload; only the copy MarkSigned records is kept.
	key := storage.PrefixSigned + doc.ID + "/" + m.ID + "-" + uuid.New().String() + ".pdf"
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: ContentTypePDF,
		Metadata:    map[string]string{"member-id": m.ID},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	if err := s.repo.MarkSigned(ctx, m.ID, key); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.WarnContext(ctx, "signed_rollback_failed", "member_id", m.ID, "key", key, "error", delErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			// Signed or expired between the read and the update.
			return s.alreadySigned(ctx, m)
		}
		return nil, fmt.Errorf("mark signed: %w", err)
	}
	m.Status = model.MemberSigned
	m.SignedFilePath = key

	out := &SignedUpload{Member: m, FilePath: key}
	if m.NextID != "" {
		next, err := s.repo.FindMember(ctx, m.NextID)
		if err != nil {
			return nil, fmt.Errorf("find next member: %w", err)
		}
		out.Next = next
		if next.Status == model.MemberPending && doc.Settings.Enabled(editor.SettingEmailNotifications) {
			s.notify(ctx, s.notifier.SignatureRequest, doc, *next)
		}
	}
	return out, nil
}

// alreadySigned reports the copy recorded by whichever upload won.
func (s *shareService) alreadySigned(ctx context.Context, m *model.Member) (*SignedUpload, error) {
	current, err := s.repo.FindMember(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == model.MemberExpired {
		return nil, ErrExpired
	}
	return &SignedUpload{Member: current, FilePath: current.SignedFilePath}, ErrAlreadySigned
}

func (s *shareService) OwnerDocs(ctx context.Context, ownerID string, limit, offset int) (*repository.PageResult[model.SharedDocSummary], error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	limit, offset = page(limit, offset)
	return s.repo.ListDocs(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
}

func (s *shareService) OwnerDocInfo(ctx context.Context, ownerID, fileID string) (*OwnerDocInfo, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindDoc(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	members, err := s.repo.ListMembers(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return &OwnerDocInfo{Doc: doc, Members: members}, nil
}

func (s *shareService) ExpireDue(ctx context.Context, day time.Time) (int64, error) {
	due, err := s.repo.DueSchedules(ctx, model.ScheduleExpire, dateOnly(day))
	if err != nil {
		return 0, fmt.Errorf("due expiries: %w", err)
	}
	var (
		total int64
		errs  []error
	)
	for _, sc := range due {
		n, err := s.repo.ExpireMembers(ctx, sc.FileID)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", sc.FileID, err))
			continue
		}
		total += n
		if err := s.repo.SetScheduleStatus(ctx, sc.ID, model.ScheduleExpired); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", sc.ID, err))
		}
	}
	s.metrics.MembersExpired(total)
	return total, errors.Join(errs...)
}

func (s *shareService) RemindDue(ctx context.Context, day time.Time) (int, error) {
	day = dateOnly(day)
	due, err := s.repo.DueSchedules(ctx, model.ScheduleReminder, day)
	if err != nil {
		return 0, fmt.Errorf("due reminders: %w", err)
	}
	sent := 0
	var errs []error
	for _, sc := range due {
		n, err := s.remind(ctx, sc, day)
		sent += n
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", sc.ID, err))
		}
	}
	return sent, errors.Join(errs...)
}

func (s *shareService) remind(ctx context.Context, sc model.Schedule, day time.Time) (int, error) {
	doc, err := s.repo.FindDoc(ctx, sc.FileID)
	if err != nil {
		return 0, err
	}
	members, err := s.repo.ListMembers(ctx, sc.FileID)
	if err != nil {
		return 0, err
	}

	sequential := doc.Settings.Enabled(editor.SettingReorder)
	var targets []model.Member
	for _, m := range members {
		if m.Status != model.MemberPending {
			continue
		}
		if sequential {
			if prev := predecessor(members, m.ID); prev != nil && prev.Status != model.MemberSigned {
				continue
			}
		}
		targets = append(targets, m)
	}
	if len(targets) == 0 && !hasPending(members) {
		return 0, s.repo.SetScheduleStatus(ctx, sc.ID, model.ScheduleInactive)
	}

	sent := 0
	for _, m := range targets {
		if s.notify(ctx, s.notifier.Reminder, doc, m) {
			sent++
			s.metrics.ReminderSent()
		}
	}
	period := sc.PeriodDays
	if period <= 0 {
		period = 1
	}
	return sent, s.repo.AdvanceSchedule(ctx, sc.ID, day.AddDate(0, 0, period))
}

// notify sends one notice and logs failures; mail problems never fail the
// operation that triggered them.
func (s *shareService) notify(ctx context.Context, send func(context.Context, Notice) error, doc *model.SharedDoc, m model.Member) bool {
	err := send(ctx, Notice{
		OwnerName:   doc.OwnerName,
		MemberName:  m.UserName,
		MemberEmail: m.Email,
		MemberID:    m.ID,
	})
	if err != nil {
		s.log.WarnContext(ctx, "notify_failed", "file_id", doc.ID, "member_id", m.ID, "error", err)
		return false
	}
	return true
}

func (s *shareService) load(ctx context.Context, memberID string) (*model.Member, *model.SharedDoc, error) {
	if memberID == "" {
		return nil, nil, ErrIDRequired
	}
	m, err := s.repo.FindMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	doc, err := s.repo.FindDoc(ctx, m.FileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return m, doc, nil
}

func predecessor(members []model.Member, id string) *model.Member {
	for i := range members {
		if members[i].NextID == id {
			return &members[i]
		}
	}
	return nil
}

func hasPending(members []model.Member) bool {
	for _, m := range members {
		if m.Status == model.MemberPending {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
