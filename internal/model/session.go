package model

import (
	"time"

	"esignapi/internal/editor"
)

// EditorSession is the persisted editing state of one document. Version is
// bumped on every save and used for optimistic concurrency.
type EditorSession struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	DocumentID string          `json:"document_id"`
	State      *editor.Session `json:"state"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
