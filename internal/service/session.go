package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"esignapi/internal/editor"
	"esignapi/internal/imaging"
	"esignapi/internal/metrics"
	"esignapi/internal/model"
	"esignapi/internal/repository"
	"esignapi/internal/storage"
)

// Image slots of the authoring form.
const (
	SlotUploadedSign = "uploadedSign"
	SlotImage        = "image"
)

// ImageUpload is an image file attached to an authoring request.
type ImageUpload struct {
	Slot     string
	FileName string
	Size     int64
	Body     io.Reader
}

// AuthorRequest is one submit of the signature authoring form. Strokes, when
// set and DrawnSignature is empty, are rasterized into the drawn signature.
type AuthorRequest struct {
	Input   editor.AuthorInput
	Strokes []editor.Stroke
	Uploads []ImageUpload
}

// MoveOp reorders one recipient.
type MoveOp struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// RecipientsRequest is a submit of the share form.
type RecipientsRequest struct {
	Recipients []editor.Recipient   `json:"recipients"`
	Settings   editor.ShareSettings `json:"settings"`
	ApplyToAll bool                 `json:"applyToAll"`
	ActiveID   string               `json:"activeId"`
	Moves      []MoveOp             `json:"moves,omitempty"`
}

// SessionService runs the editor operations against persisted sessions.
// Every mutation loads the session, applies the change and saves it with an
// optimistic version check; a concurrent save yields repository.ErrConflict.
type SessionService interface {
	Create(ctx context.Context, ownerID, documentID string) (*model.EditorSession, error)
	Get(ctx context.Context, ownerID, id string) (*model.EditorSession, error)
	Delete(ctx context.Context, ownerID, id string) error
	Clear(ctx context.Context, ownerID, id string) (*model.EditorSession, error)

	AuthorSignatures(ctx context.Context, ownerID, id string, req AuthorRequest) (*model.EditorSession, []editor.Signature, error)
	EditSignature(ctx context.Context, ownerID, id, sigID string, req AuthorRequest) (*model.EditorSession, error)
	RemoveSignature(ctx context.Context, ownerID, id, sigID string) (*model.EditorSession, error)

	AddPlacement(ctx context.Context, ownerID, id, sigID string, page int) (*model.EditorSession, *editor.Placement, error)
	AddFreeText(ctx context.Context, ownerID, id string, page int) (*model.EditorSession, *editor.Placement, error)
	UpdatePlacement(ctx context.Context, ownerID, id, placementID string, patch editor.PlacementPatch) (*model.EditorSession, *editor.Placement, error)
	RemovePlacement(ctx context.Context, ownerID, id, placementID string) (*model.EditorSession, error)
	AssignPlacement(ctx context.Context, ownerID, id, placementID, email string) (*model.EditorSession, error)

	SetRecipients(ctx context.Context, ownerID, id string, req RecipientsRequest) (*model.EditorSession, error)
}

type sessionService struct {
	repo         repository.SessionRepository
	docs         DocumentService
	store        storage.Storage
	gen          editor.IDGenerator
	metrics      *metrics.Metrics
	allowReorder bool
	now          func() time.Time
}

// SessionOption customizes a SessionService.
type SessionOption func(*sessionService)

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(gen editor.IDGenerator) SessionOption {
	return func(s *sessionService) { s.gen = gen }
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *sessionService) { s.metrics = m }
}

// WithAllowReorder lets share forms reorder recipients.
func WithAllowReorder(allow bool) SessionOption {
	return func(s *sessionService) { s.allowReorder = allow }
}

// NewSessionService constructs a new SessionService.
func NewSessionService(repo repository.SessionRepository, docs DocumentService, store storage.Storage, opts ...SessionOption) SessionService {
	s := &sessionService{
		repo:         repo,
		docs:         docs,
		store:        store,
		gen:          editor.UUIDGenerator{},
		allowReorder: true,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *sessionService) Create(ctx context.Context, ownerID, documentID string) (*model.EditorSession, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != "" && doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	id := uuid.New().String()
	now := s.now()
	state := editor.NewSession(id, ownerID, editor.FileRef{
		DocumentID: doc.ID,
		FileName:   doc.Filename,
		FilePath:   doc.StoragePath,
	}, doc.NumPages, s.gen)

	return s.repo.Create(ctx, &model.EditorSession{
		ID:         id,
		OwnerID:    ownerID,
		DocumentID: doc.ID,
		State:      state,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *sessionService) Get(ctx context.Context, ownerID, id string) (*model.EditorSession, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Other owners' sessions are reported as missing.
	if sess.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if sess.State == nil {
		return nil, fmt.Errorf("session %s has no state", id)
	}
	sess.State.WithIDGenerator(s.gen)
	return sess, nil
}

func (s *sessionService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// mutate is the load, apply, save cycle shared by every editing operation.
func (s *sessionService) mutate(ctx context.Context, ownerID, id string, fn func(*editor.Session) error) (*model.EditorSession, error) {
	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess.State); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	saved, err := s.repo.Update(ctx, sess)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *sessionService) Clear(ctx context.Context, ownerID, id string) (*model.EditorSession, error) {
	return s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		st.Clear()
		return nil
	})
}

func (s *sessionService) AuthorSignatures(ctx context.Context, ownerID, id string, req AuthorRequest) (*model.EditorSession, []editor.Signature, error) {
	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	in, keys, err := s.prepareInput(ctx, id, req)
	if err != nil {
		return nil, nil, err
	}
	sigs := editor.Author(in, s.gen)
	if len(sigs) == 0 {
		s.dropImages(ctx, keys)
		return sess, nil, nil
	}

	sess.State.ApplySignatures(sigs)
	sess.UpdatedAt = s.now()
	saved, err := s.repo.Update(ctx, sess)
	if err != nil {
		s.dropImages(ctx, keys)
		return nil, nil, err
	}
	for _, sig := range sigs {
		s.metrics.SignatureAuthored(string(sig.Type))
	}
	return saved, sigs, nil
}

func (s *sessionService) EditSignature(ctx context.Context, ownerID, id, sigID string, req AuthorRequest) (*model.EditorSession, error) {
	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	existing, ok := sess.State.Signature(sigID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", editor.ErrSignatureNotFound, sigID)
	}
	// Nothing is uploaded for an edit the signature's field cannot take.
	if _, err := editor.AuthorEdit(existing, placeholderInput(req)); err != nil {
		return nil, err
	}
	in, keys, err := s.prepareInput(ctx, id, req)
	if err != nil {
		return nil, err
	}
	saved, err := s.applyEdit(ctx, sess, existing, in)
	if err != nil {
		s.dropImages(ctx, keys)
		return nil, err
	}
	return saved, nil
}

func (s *sessionService) applyEdit(ctx context.Context, sess *model.EditorSession, existing editor.Signature, in editor.AuthorInput) (*model.EditorSession, error) {
	edited, err := editor.AuthorEdit(existing, in)
	if err != nil {
		return nil, err
	}
	if err := sess.State.EditSignature(edited); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	return s.repo.Update(ctx, sess)
}

// placeholderInput is req's input with stand-ins for the strokes and
// uploads, which are only turned into content once the edit is known to fit.
func placeholderInput(req AuthorRequest) editor.AuthorInput {
	in := req.Input
	if in.DrawnSignature == "" && len(req.Strokes) > 0 {
		in.DrawnSignature = "strokes"
	}
	for _, up := range req.Uploads {
		switch up.Slot {
		case SlotUploadedSign:
			in.UploadedSign = &editor.ImageRef{FileName: up.FileName}
		case SlotImage:
			in.Image = &editor.ImageRef{FileName: up.FileName}
		}
	}
	return in
}

func (s *sessionService) RemoveSignature(ctx context.Context, ownerID, id, sigID string) (*model.EditorSession, error) {
	return s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		return st.RemoveSignature(sigID)
	})
}

func (s *sessionService) AddPlacement(ctx context.Context, ownerID, id, sigID string, page int) (*model.EditorSession, *editor.Placement, error) {
	var pl *editor.Placement
	sess, err := s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		var err error
		pl, err = st.AddPlacement(sigID, page)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if pl != nil {
		s.metrics.PlacementAdded()
	}
	return sess, pl, nil
}

func (s *sessionService) AddFreeText(ctx context.Context, ownerID, id string, page int) (*model.EditorSession, *editor.Placement, error) {
	var pl *editor.Placement
	sess, err := s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		var err error
		pl, err = st.AddFreeText(page)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.SignatureAuthored(string(editor.TypeFreeText))
	s.metrics.PlacementAdded()
	return sess, pl, nil
}

func (s *sessionService) UpdatePlacement(ctx context.Context, ownerID, id, placementID string, patch editor.PlacementPatch) (*model.EditorSession, *editor.Placement, error) {
	var pl *editor.Placement
	sess, err := s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		var err error
		pl, err = st.UpdatePlacement(placementID, patch)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, pl, nil
}

func (s *sessionService) RemovePlacement(ctx context.Context, ownerID, id, placementID string) (*model.EditorSession, error) {
	return s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		return st.RemovePlacement(placementID)
	})
}

func (s *sessionService) AssignPlacement(ctx context.Context, ownerID, id, placementID, email string) (*model.EditorSession, error) {
	return s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		return st.AssignPlacement(placementID, email)
	})
}

func (s *sessionService) SetRecipients(ctx context.Context, ownerID, id string, req RecipientsRequest) (*model.EditorSession, error) {
	return s.mutate(ctx, ownerID, id, func(st *editor.Session) error {
		recipients := make([]editor.Recipient, len(req.Recipients))
		for i, r := range req.Recipients {
			if r.ID == "" {
				r.ID = s.gen.NewID("recipient")
			}
			if r.Role == "" {
				r.Role = editor.RoleSigner
			}
			if len(r.AllowedFormats) == 0 {
				r.AllowedFormats = []editor.Format{editor.FormatAll}
			}
			recipients[i] = r
		}
		settings := req.Settings
		if settings == nil {
			settings = editor.DefaultShareSettings()
		}

		form := editor.LoadShareForm(s.gen, recipients, settings, s.allowReorder)
		for _, m := range req.Moves {
			form.Move(m.From, m.To)
		}
		if req.ApplyToAll {
			form.SetActive(req.ActiveID)
			form.SetApplyToAll(true)
		}
		sub, err := form.Submit()
		if err != nil {
			if errors.Is(err, editor.ErrInvalidRecipients) {
				return &ValidationError{Errors: form.Errors, Err: err}
			}
			return err
		}
		st.SetRecipients(sub)
		return nil
	})
}

// prepareInput rasterizes strokes, stores uploaded images and returns the
// completed authoring input with the keys of the stored images. On error
// nothing stays stored.
func (s *sessionService) prepareInput(ctx context.Context, sessionID string, req AuthorRequest) (editor.AuthorInput, []string, error) {
	in := req.Input
	for _, up := range req.Uploads {
		if up.Slot != SlotUploadedSign && up.Slot != SlotImage {
			return editor.AuthorInput{}, nil, fmt.Errorf("%w: unknown slot %q", ErrInvalidImage, up.Slot)
		}
	}
	if in.DrawnSignature == "" && len(req.Strokes) > 0 {
		canvas, err := editor.NewCanvas(editor.CanvasWidth, editor.CanvasHeight, in.Styles.For(editor.TypeSignature).Color)
		if err != nil {
			return editor.AuthorInput{}, nil, err
		}
		url, err := canvas.Replay(req.Strokes)
		if err != nil {
			return editor.AuthorInput{}, nil, err
		}
		in.DrawnSignature = url
	}

	var keys []string
	for _, up := range req.Uploads {
		ref, err := s.storeImage(ctx, sessionID, up)
		if err != nil {
			s.dropImages(ctx, keys)
			return editor.AuthorInput{}, nil, err
		}
		keys = append(keys, ref.Key)
		if up.Slot == SlotUploadedSign {
			in.UploadedSign = ref
		} else {
			in.Image = ref
		}
	}
	return in, keys, nil
}

// dropImages deletes images stored for an edit that was not saved.
func (s *sessionService) dropImages(ctx context.Context, keys []string) {
	for _, key := range keys {
		_ = s.store.Delete(ctx, key)
	}
}

func (s *sessionService) storeImage(ctx context.Context, sessionID string, up ImageUpload) (*editor.ImageRef, error) {
	if up.Body == nil {
		return nil, ErrReaderNil
	}
	info, body, err := imaging.Inspect(up.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	key := storage.PrefixImages + sessionID + "/" + uuid.New().String() + "." + info.Format
	size := up.Size
	if size <= 0 {
		size = -1
	}
	obj, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: info.ContentType,
		Metadata:    map[string]string{"original-filename": up.FileName},
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	name := up.FileName
	if name == "" {
		name = "image." + info.Format
	}
	return &editor.ImageRef{Key: obj.Key, FileName: name, ContentType: info.ContentType, Size: obj.Size}, nil
}
