package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/pivot"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Track(ctx context.Context, token string, imageCount int) error {
	args := m.Called(ctx, token, imageCount)
	return args.Error(0)
}

func (m *MockClient) Sign(ctx context.Context, token string, req pivot.SignRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
