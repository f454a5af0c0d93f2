package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/repository"
)

// SharePostgres persists shares in esign_docs, esign_members and
// esign_schedules.
type SharePostgres struct {
	db *sql.DB
}

// NewSharePostgres creates a new SharePostgres repository.
func NewSharePostgres(db *sql.DB) *SharePostgres {
	return &SharePostgres{db: db}
}

var _ repository.ShareRepository = (*SharePostgres)(nil)

const (
	sharedDocColumns = `id, owner_id, owner_name, file_name, file_path, settings, placements, created_at`
	memberColumns    = `id, file_id, position, user_name, email, role, password_hash, allowed_formats, status, next_id, signed_file_path, created_at, updated_at`
	scheduleColumns  = `id, file_id, kind, period_days, next_notify, status, created_at`
)

// Create inserts the document, its members and schedules in one transaction.
// Member and schedule ids, and member NextID links, are set by the caller.
func (r *SharePostgres) Create(ctx context.Context, doc *model.SharedDoc, members []model.Member, schedules []model.Schedule) (*model.SharedDoc, error) {
	settings, err := json.Marshal(doc.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	placements := doc.Placements
	if placements == nil {
		placements = []editor.Placement{}
	}
	rawPlacements, err := json.Marshal(placements)
	if err != nil {
		return nil, fmt.Errorf("encode placements: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const qDoc = `
		INSERT INTO esign_docs (id, owner_id, owner_name, file_name, file_path, settings, placements, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + sharedDocColumns
	stored, err := scanSharedDoc(tx.QueryRowContext(ctx, qDoc,
		doc.ID, doc.OwnerID, doc.OwnerName, doc.FileName, doc.FilePath, settings, rawPlacements, doc.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert esign_docs: %w", err)
	}

	const qMember = `
		INSERT INTO esign_members (id, file_id, position, user_name, email, role, password_hash, allowed_formats, status, next_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, m := range members {
		formats, err := json.Marshal(m.AllowedFormats)
		if err != nil {
			return nil, fmt.Errorf("encode allowed formats: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qMember,
			m.ID, stored.ID, m.Position, m.UserName, m.Email, string(m.Role),
			nullString(m.PasswordHash), formats, string(m.Status), nullString(m.NextID),
		); err != nil {
			return nil, fmt.Errorf("insert esign_members: %w", err)
		}
	}

	const qSchedule = `
		INSERT INTO esign_schedules (id, file_id, kind, period_days, next_notify, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, s := range schedules {
		if _, err := tx.ExecContext(ctx, qSchedule,
			s.ID, stored.ID, string(s.Kind), s.PeriodDays, nullDate(s.NextNotify), string(s.Status),
		); err != nil {
			return nil, fmt.Errorf("insert esign_schedules: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *SharePostgres) FindDoc(ctx context.Context, id string) (*model.SharedDoc, error) {
	const q = `SELECT ` + sharedDocColumns + ` FROM esign_docs WHERE id = $1`
	return scanSharedDoc(r.db.QueryRowContext(ctx, q, id))
}

// ListDocs returns an owner's shares, newest first, with member tallies.
func (r *SharePostgres) ListDocs(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.SharedDocSummary], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM esign_docs WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT d.id, d.owner_id, d.owner_name, d.file_name, d.file_path, d.settings, d.placements, d.created_at,
		       COUNT(m.id),
		       COUNT(m.id) FILTER (WHERE m.status = 'signed'),
		       COUNT(m.id) FILTER (WHERE m.status = 'pending')
		FROM esign_docs d
		LEFT JOIN esign_members m ON m.file_id = d.id
		WHERE d.owner_id = $1
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, q, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SharedDocSummary, 0)
	for rows.Next() {
		var (
			s                    model.SharedDocSummary
			settings, placements []byte
		)
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.OwnerName, &s.FileName, &s.FilePath, &settings, &placements, &s.CreatedAt,
			&s.Members, &s.Signed, &s.Pending); err != nil {
			return nil, err
		}
		if err := decodeSettings(settings, &s.Settings); err != nil {
			return nil, err
		}
		if err := decodePlacements(placements, &s.Placements); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.SharedDocSummary]{Items: items, Total: total}, nil
}

func (r *SharePostgres) FindMember(ctx context.Context, id string) (*model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM esign_members WHERE id = $1`
	return scanMember(r.db.QueryRowContext(ctx, q, id))
}

func (r *SharePostgres) ListMembers(ctx context.Context, fileID string) ([]model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM esign_members WHERE file_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *SharePostgres) MarkSigned(ctx context.Context, memberID, signedPath string) error {
	const q = `
		UPDATE esign_members
		SET status = 'signed', signed_file_path = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, memberID, signedPath)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SharePostgres) ExpireMembers(ctx context.Context, fileID string) (int64, error) {
	const q = `
		UPDATE esign_members
		SET status = 'expired', updated_at = now()
		WHERE file_id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, fileID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SharePostgres) DueSchedules(ctx context.Context, kind model.ScheduleKind, day time.Time) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + `
		FROM esign_schedules
		WHERE status = 'active' AND kind = $1 AND next_notify <= $2
		ORDER BY next_notify, id`
	rows, err := r.db.QueryContext(ctx, q, string(kind), day.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Schedule, 0)
	for rows.Next() {
		var (
			s    model.Schedule
			next sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.FileID, &s.Kind, &s.PeriodDays, &next, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.NextNotify = next.Time
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SharePostgres) AdvanceSchedule(ctx context.Context, id string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE esign_schedules SET next_notify = $2 WHERE id = $1`, id, next.Format(time.DateOnly))
	return err
}

func (r *SharePostgres) SetScheduleStatus(ctx context.Context, id string, status model.ScheduleStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE esign_schedules SET status = $2 WHERE id = $1`, id, string(status))
	return err
}

func scanSharedDoc(s scanner) (*model.SharedDoc, error) {
	var (
		d                    model.SharedDoc
		settings, placements []byte
	)
	if err := s.Scan(&d.ID, &d.OwnerID, &d.OwnerName, &d.FileName, &d.FilePath, &settings, &placements, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeSettings(settings, &d.Settings); err != nil {
		return nil, err
	}
	if err := decodePlacements(placements, &d.Placements); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanMember(s scanner) (*model.Member, error) {
	var (
		m                      model.Member
		hash, next, signedPath sql.NullString
		formats                []byte
	)
	if err := s.Scan(&m.ID, &m.FileID, &m.Position, &m.UserName, &m.Email, &m.Role,
		&hash, &formats, &m.Status, &next, &signedPath, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.PasswordHash = hash.String
	m.NextID = next.String
	m.SignedFilePath = signedPath.String
	m.AllowedFormats = []editor.Format{}
	if len(formats) > 0 {
		if err := json.Unmarshal(formats, &m.AllowedFormats); err != nil {
			return nil, fmt.Errorf("decode allowed formats: %w", err)
		}
	}
	return &m, nil
}

func decodeSettings(raw []byte, out *editor.ShareSettings) error {
	*out = editor.ShareSettings{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}

func decodePlacements(raw []byte, out *[]editor.Placement) error {
	*out = []editor.Placement{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode placements: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}
