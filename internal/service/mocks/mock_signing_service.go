package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/service"
)

type MockSigningService struct {
	mock.Mock
}

func (m *MockSigningService) Sign(ctx context.Context, ownerID, token, sessionID string) (*service.SignResult, error) {
	args := m.Called(ctx, ownerID, token, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignResult), args.Error(1)
}
