package repository

import (
	"context"
	"time"

	"esignapi/internal/model"
)

// ShareRepository persists shared documents with their members and
// follow-up schedules.
type ShareRepository interface {
	// Create stores the document, members and schedules atomically. Member
	// ids and their NextID links are assigned by the caller.
	Create(ctx context.Context, doc *model.SharedDoc, members []model.Member, schedules []model.Schedule) (*model.SharedDoc, error)

	FindDoc(ctx context.Context, id string) (*model.SharedDoc, error)
	ListDocs(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.SharedDocSummary], error)

	FindMember(ctx context.Context, id string) (*model.Member, error)
	ListMembers(ctx context.Context, fileID string) ([]model.Member, error)
	// MarkSigned records the signed file for a pending member. It returns
	// sql.ErrNoRows when the member is not pending.
	MarkSigned(ctx context.Context, memberID, signedPath string) error
	// ExpireMembers flags every pending member of fileID as expired.
	ExpireMembers(ctx context.Context, fileID string) (int64, error)

	// DueSchedules lists active schedules of kind due on or before day.
	DueSchedules(ctx context.Context, kind model.ScheduleKind, day time.Time) ([]model.Schedule, error)
	AdvanceSchedule(ctx context.Context, id string, next time.Time) error
	SetScheduleStatus(ctx context.Context, id string, status model.ScheduleStatus) error
}
