package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"esignapi/internal/editor"
	"esignapi/internal/model"
	"esignapi/internal/repository"
)

// SessionPostgres stores editor sessions with their state in a JSONB column.
type SessionPostgres struct {
	db *sql.DB
}

// NewSessionPostgres creates a new SessionPostgres repository.
func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

const sessionColumns = `id, owner_id, document_id, state, version, created_at, updated_at`

func (r *SessionPostgres) Create(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error) {
	state, err := json.Marshal(s.State)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	const q = `
		INSERT INTO editor_sessions (id, owner_id, document_id, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRowContext(ctx, q, s.ID, s.OwnerID, s.DocumentID, state, s.CreatedAt))
}

func (r *SessionPostgres) FindByID(ctx context.Context, id string) (*model.EditorSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM editor_sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, q, id))
}

// Update writes the new state only when the row still has s.Version.
func (r *SessionPostgres) Update(ctx context.Context, s *model.EditorSession) (*model.EditorSession, error) {
	state, err := json.Marshal(s.State)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	const q = `
		UPDATE editor_sessions
		SET state = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING ` + sessionColumns
	out, err := scanSession(r.db.QueryRowContext(ctx, q, state, s.ID, s.Version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrConflict
	}
	return out, err
}

func (r *SessionPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM editor_sessions WHERE id = $1`, id)
	return err
}

func scanSession(s scanner) (*model.EditorSession, error) {
	var (
		out   model.EditorSession
		state []byte
	)
	if err := s.Scan(&out.ID, &out.OwnerID, &out.DocumentID, &state, &out.Version, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.State = &editor.Session{}
	if err := json.Unmarshal(state, out.State); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", out.ID, err)
	}
	return &out, nil
}
