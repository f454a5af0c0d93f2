package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/model"
	"esignapi/internal/repository"
)

type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) Create(ctx context.Context, doc *model.SharedDoc, members []model.Member, schedules []model.Schedule) (*model.SharedDoc, error) {
	args := m.Called(ctx, doc, members, schedules)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedDoc), args.Error(1)
}

func (m *MockShareRepository) FindDoc(ctx context.Context, id string) (*model.SharedDoc, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedDoc), args.Error(1)
}

func (m *MockShareRepository) ListDocs(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.SharedDocSummary], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.SharedDocSummary]), args.Error(1)
}

func (m *MockShareRepository) FindMember(ctx context.Context, id string) (*model.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockShareRepository) ListMembers(ctx context.Context, fileID string) ([]model.Member, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}

func (m *MockShareRepository) MarkSigned(ctx context.Context, memberID, signedPath string) error {
	args := m.Called(ctx, memberID, signedPath)
	return args.Error(0)
}

func (m *MockShareRepository) ExpireMembers(ctx context.Context, fileID string) (int64, error) {
	args := m.Called(ctx, fileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShareRepository) DueSchedules(ctx context.Context, kind model.ScheduleKind, day time.Time) ([]model.Schedule, error) {
	args := m.Called(ctx, kind, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Schedule), args.Error(1)
}

func (m *MockShareRepository) AdvanceSchedule(ctx context.Context, id string, next time.Time) error {
	args := m.Called(ctx, id, next)
	return args.Error(0)
}

func (m *MockShareRepository) SetScheduleStatus(ctx context.Context, id string, status model.ScheduleStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
