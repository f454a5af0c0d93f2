package repository

import (
	"context"
	"errors"
	"time"

	"esignapi/internal/model"
)

// ErrConflict is returned when an optimistic update finds a newer version.
var ErrConflict = errors.New("version conflict")

// DocumentRepository defines data access for uploaded documents. Strictly
// persistence; missing rows surface as sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns it as stored.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns one owner's documents, newest first, with the total count.
	List(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Document], error)

	// ListStale returns documents under prefix created before cutoff.
	ListStale(ctx context.Context, prefix string, cutoff time.Time) ([]model.Document, error)

	// Delete removes a document by ID. Missing rows are not an error.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
