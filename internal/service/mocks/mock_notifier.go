package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/service"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SignatureRequest(ctx context.Context, n service.Notice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) Reminder(ctx context.Context, n service.Notice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
