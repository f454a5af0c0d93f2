package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/model"
	"esignapi/internal/repository"
	"esignapi/internal/service"
	"esignapi/internal/storage"
)

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Share(ctx context.Context, owner service.Owner, req service.ShareRequest) (*service.ShareResult, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareResult), args.Error(1)
}

func (m *MockShareService) ShareSession(ctx context.Context, owner service.Owner, sessionID string) (*service.ShareResult, error) {
	args := m.Called(ctx, owner, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareResult), args.Error(1)
}

func (m *MockShareService) Info(ctx context.Context, memberID, password string) (*service.ShareInfo, error) {
	args := m.Called(ctx, memberID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareInfo), args.Error(1)
}

func (m *MockShareService) Download(ctx context.Context, filePath string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockShareService) UploadSigned(ctx context.Context, memberID string, r io.Reader) (*service.SignedUpload, error) {
	args := m.Called(ctx, memberID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedUpload), args.Error(1)
}

func (m *MockShareService) OwnerDocs(ctx context.Context, ownerID string, limit, offset int) (*repository.PageResult[model.SharedDocSummary], error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.SharedDocSummary]), args.Error(1)
}

func (m *MockShareService) OwnerDocInfo(ctx context.Context, ownerID, fileID string) (*service.OwnerDocInfo, error) {
	args := m.Called(ctx, ownerID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OwnerDocInfo), args.Error(1)
}

func (m *MockShareService) ExpireDue(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShareService) RemindDue(ctx context.Context, day time.Time) (int, error) {
	args := m.Called(ctx, day)
	return args.Int(0), args.Error(1)
}
