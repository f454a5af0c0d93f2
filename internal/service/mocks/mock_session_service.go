package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/service"
)

type MockSessionService struct {
	mock.Mock
}

func session(args mock.Arguments) *model.EditorSession {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.EditorSession)
}

func placement(v any) *editor.Placement {
	if v == nil {
		return nil
	}
	return v.(*editor.Placement)
}

func (m *MockSessionService) Create(ctx context.Context, ownerID, documentID string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, documentID)
	return session(args), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, ownerID, id string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id)
	return session(args), args.Error(1)
}

func (m *MockSessionService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockSessionService) Clear(ctx context.Context, ownerID, id string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id)
	return session(args), args.Error(1)
}

func (m *MockSessionService) AuthorSignatures(ctx context.Context, ownerID, id string, req service.AuthorRequest) (*model.EditorSession, []editor.Signature, error) {
	args := m.Called(ctx, ownerID, id, req)
	var sigs []editor.Signature
	if v := args.Get(1); v != nil {
		sigs = v.([]editor.Signature)
	}
	return session(args), sigs, args.Error(2)
}

func (m *MockSessionService) EditSignature(ctx context.Context, ownerID, id, sigID string, req service.AuthorRequest) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id, sigID, req)
	return session(args), args.Error(1)
}

func (m *MockSessionService) RemoveSignature(ctx context.Context, ownerID, id, sigID string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id, sigID)
	return session(args), args.Error(1)
}

func (m *MockSessionService) AddPlacement(ctx context.Context, ownerID, id, sigID string, page int) (*model.EditorSession, *editor.Placement, error) {
	args := m.Called(ctx, ownerID, id, sigID, page)
	return session(args), placement(args.Get(1)), args.Error(2)
}

func (m *MockSessionService) AddFreeText(ctx context.Context, ownerID, id string, page int) (*model.EditorSession, *editor.Placement, error) {
	args := m.Called(ctx, ownerID, id, page)
	return session(args), placement(args.Get(1)), args.Error(2)
}

func (m *MockSessionService) UpdatePlacement(ctx context.Context, ownerID, id, placementID string, patch editor.PlacementPatch) (*model.EditorSession, *editor.Placement, error) {
	args := m.Called(ctx, ownerID, id, placementID, patch)
	return session(args), placement(args.Get(1)), args.Error(2)
}

func (m *MockSessionService) RemovePlacement(ctx context.Context, ownerID, id, placementID string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id, placementID)
	return session(args), args.Error(1)
}

func (m *MockSessionService) AssignPlacement(ctx context.Context, ownerID, id, placementID, email string) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id, placementID, email)
	return session(args), args.Error(1)
}

func (m *MockSessionService) SetRecipients(ctx context.Context, ownerID, id string, req service.RecipientsRequest) (*model.EditorSession, error) {
	args := m.Called(ctx, ownerID, id, req)
	return session(args), args.Error(1)
}
