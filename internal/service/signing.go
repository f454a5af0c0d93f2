package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"esignapi/internal/editor"
	"esignapi/internal/metrics"
	"esignapi/internal/pivot"
	"esignapi/internal/storage"
)

// SignResult is a stamped PDF kept in storage.
type SignResult struct {
	Key      string
	FileName string
	Size     int64
	Data     []byte
}

// SigningService submits an editing session for stamping.
type SigningService interface {
	// Sign charges usage for the session's image and drawn templates, sends
	// the PDF with its placements upstream and stores the result. token is
	// the caller's bearer token; without one usage is not tracked.
	Sign(ctx context.Context, ownerID, token, sessionID string) (*SignResult, error)
}

type signingService struct {
	sessions SessionService
	docs     DocumentService
	store    storage.Storage
	client   pivot.Client
	metrics  *metrics.Metrics
}

// NewSigningService constructs a new SigningService. m may be nil.
func NewSigningService(sessions SessionService, docs DocumentService, store storage.Storage, client pivot.Client, m *metrics.Metrics) SigningService {
	return &signingService{sessions: sessions, docs: docs, store: store, client: client, metrics: m}
}

func (s *signingService) Sign(ctx context.Context, ownerID, token, sessionID string) (*SignResult, error) {
	sess, err := s.sessions.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State

	asm, err := editor.Assemble(st)
	if err != nil {
		s.metrics.SignRequest(metrics.OutcomeInvalid)
		return nil, err
	}
	if len(asm.Placements) == 0 {
		s.metrics.SignRequest(metrics.OutcomeInvalid)
		return nil, ErrNothingToSign
	}

	if strings.TrimSpace(token) != "" {
		if err := s.client.Track(ctx, token, editor.ImageCount(st)); err != nil {
			s.metrics.SignRequest(outcome(err))
			return nil, err
		}
	}

	pdf, doc, err := s.docs.Open(ctx, st.File.DocumentID)
	if err != nil {
		return nil, err
	}
	defer pdf.Close()

	parts, closeParts, err := s.openParts(ctx, asm.Attachments)
	defer closeParts()
	if err != nil {
		return nil, err
	}

	signed, err := s.client.Sign(ctx, token, pivot.SignRequest{
		PDF:        pdf,
		PDFName:    doc.Filename,
		Placements: asm.Placements,
		Parts:      parts,
	})
	if err != nil {
		s.metrics.SignRequest(outcome(err))
		return nil, err
	}
	defer signed.Close()
	data, err := io.ReadAll(signed)
	if err != nil {
		s.metrics.SignRequest(metrics.OutcomeUpstream)
		return nil, fmt.Errorf("%w: read signed pdf: %v", pivot.ErrUpstream, err)
	}

	key := storage.PrefixSigned + sessionID + "/" + uuid.New().String() + ".pdf"
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: ContentTypePDF,
		Metadata:    map[string]string{"session-id": sessionID},
	}); err != nil {
		return nil, fmt.Errorf("store signed pdf: %w", err)
	}
	s.metrics.SignRequest(metrics.OutcomeSigned)

	return &SignResult{
		Key:      key,
		FileName: "signed-" + doc.Filename,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

// openParts turns attachments into multipart parts, opening stored images.
// The returned func closes whatever was opened and is always safe to call.
func (s *signingService) openParts(ctx context.Context, atts []editor.Attachment) ([]pivot.Part, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	parts := make([]pivot.Part, 0, len(atts))
	for _, a := range atts {
		p := pivot.Part{Field: a.Field, FileName: a.FileName, ContentType: a.ContentType}
		if a.Image != nil {
			rc, _, err := s.store.Get(ctx, a.Image.Key)
			if err != nil {
				return nil, closeAll, fmt.Errorf("open image %s: %w", a.Image.Key, err)
			}
			closers = append(closers, rc)
			p.Body = rc
		} else {
			p.Body = bytes.NewReader(a.Data)
		}
		parts = append(parts, p)
	}
	return parts, closeAll, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, pivot.ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, pivot.ErrQuotaExceeded):
		return metrics.OutcomeQuota
	default:
		return metrics.OutcomeUpstream
	}
}
