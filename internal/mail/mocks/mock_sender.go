package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/mail"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
