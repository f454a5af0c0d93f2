package repository

import (
	"context"

	"esignapi/internal/model"
)

// SessionRepository persists editor sessions as JSON documents.
type SessionRepository interface {
	Create(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error)
	FindByID(ctx context.Context, id string) (*model.EditorSession, error)
	// Update saves s if the stored version still equals s.Version and
	// returns the record with the bumped version, or ErrConflict.
	Update(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error)
	Delete(ctx context.Context, id string) error
}
