package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/model"
)

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error) {
	args := m.Called(ctx, s)
	if f, ok := args.Get(0).(func(*model.EditorSession) *model.EditorSession); ok {
		return f(s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EditorSession), args.Error(1)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*model.EditorSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EditorSession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error) {
	args := m.Called(ctx, s)
	if f, ok := args.Get(0).(func(*model.EditorSession) *model.EditorSession); ok {
		return f(s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EditorSession), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
