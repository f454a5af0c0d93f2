package editor

import "fmt"

// FileRef identifies the source PDF of a session.
type FileRef struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	FilePath   string `json:"filePath"`
}

// Session is the editing aggregate for one uploaded document.
type Session struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"ownerId"`
	File          FileRef       `json:"file"`
	NumPages      int           `json:"numPages"`
	Signatures    []Signature   `json:"signatures"`
	Recipients    []Recipient   `json:"recipients"`
	ShareSettings ShareSettings `json:"shareSettings"`

	gen IDGenerator
}

// NewSession starts an empty session over file. numPages of zero means the
// page count is unknown and only negative pages are rejected.
func NewSession(id, ownerID string, file FileRef, numPages int, gen IDGenerator) *Session {
	return &Session{
		ID:            id,
		OwnerID:       ownerID,
		File:          file,
		NumPages:      numPages,
		Signatures:    []Signature{},
		Recipients:    []Recipient{},
		ShareSettings: DefaultShareSettings(),
		gen:           gen,
	}
}

// WithIDGenerator sets the generator used by operations that mint ids.
// Sessions decoded from storage need it reattached.
func (s *Session) WithIDGenerator(gen IDGenerator) *Session {
	s.gen = gen
	return s
}

func (s *Session) ids() IDGenerator {
	if s.gen == nil {
		return UUIDGenerator{}
	}
	return s.gen
}

// ApplySignatures appends freshly authored signatures.
func (s *Session) ApplySignatures(sigs []Signature) {
	for _, sig := range sigs {
		if sig.Placements == nil {
			sig.Placements = []Placement{}
		}
		s.Signatures = append(s.Signatures, sig)
	}
}

// Signature returns the signature with the given id.
func (s *Session) Signature(id string) (Signature, bool) {
	if i := s.signatureIndex(id); i >= 0 {
		return s.Signatures[i], true
	}
	return Signature{}, false
}

// EditSignature replaces the template content of an existing signature.
// Its placements are kept as they are.
func (s *Session) EditSignature(sig Signature) error {
	i := s.signatureIndex(sig.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSignatureNotFound, sig.ID)
	}
	if sig.Type != s.Signatures[i].Type {
		return fmt.Errorf("%w: %s != %s", ErrTypeMismatch, sig.Type, s.Signatures[i].Type)
	}
	sig.Placements = s.Signatures[i].Placements
	s.Signatures[i] = sig
	return nil
}

// RemoveSignature deletes a signature together with its placements.
func (s *Session) RemoveSignature(id string) error {
	i := s.signatureIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSignatureNotFound, id)
	}
	s.Signatures = append(s.Signatures[:i], s.Signatures[i+1:]...)
	return nil
}

// AddPlacement places the signature on page. An unknown signature is a
// no-op and yields a nil placement.
func (s *Session) AddPlacement(signatureID string, page int) (*Placement, error) {
	i := s.signatureIndex(signatureID)
	if i < 0 {
		return nil, nil
	}
	if err := s.checkPage(page); err != nil {
		return nil, err
	}
	sig := &s.Signatures[i]
	pl := placeFrom(*sig, s.ids().NewID(string(sig.Type)), page)
	sig.Placements = append(sig.Placements, pl)
	out := pl
	return &out, nil
}

// AddFreeText creates a free-text signature and one placement for it on page
// in a single step. The placement starts in inline-edit mode.
func (s *Session) AddFreeText(page int) (*Placement, error) {
	if err := s.checkPage(page); err != nil {
		return nil, err
	}
	sig := newTextSignature(s.ids().NewID(string(TypeFreeText)), TypeFreeText, DefaultFreeText, TextStyle{}.Resolved())
	pl := placeFrom(sig, s.ids().NewID(string(TypeFreeText)), page)
	pl.Editing = true
	sig.Placements = []Placement{pl}
	s.Signatures = append(s.Signatures, sig)
	out := pl
	return &out, nil
}

// UpdatePlacement shallow-merges patch into the placement with the given id,
// wherever it lives.
func (s *Session) UpdatePlacement(id string, patch PlacementPatch) (*Placement, error) {
	pl := s.findPlacement(id)
	if pl == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlacementNotFound, id)
	}
	pl.apply(patch)
	out := *pl
	return &out, nil
}

// RemovePlacement drops the placement from its owning signature. The
// signature itself stays available for placing again.
func (s *Session) RemovePlacement(id string) error {
	for i := range s.Signatures {
		pls := s.Signatures[i].Placements
		for j := range pls {
			if pls[j].ID == id {
				s.Signatures[i].Placements = append(pls[:j], pls[j+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrPlacementNotFound, id)
}

// AssignPlacement binds a placement to a signer-role recipient by email.
func (s *Session) AssignPlacement(id, email string) error {
	if blank(email) {
		return ErrEmptySelection
	}
	pl := s.findPlacement(id)
	if pl == nil {
		return fmt.Errorf("%w: %s", ErrPlacementNotFound, id)
	}
	if !isSignerEmail(s.Recipients, email) {
		return fmt.Errorf("%w: %s", ErrNotSigner, email)
	}
	pl.AssignedTo = email
	return nil
}

// SetRecipients stores a submitted share form. Assignments to emails that are
// no longer signers are dropped.
func (s *Session) SetRecipients(sub ShareSubmission) {
	s.Recipients = cloneRecipients(sub.Recipients)
	s.ShareSettings = sub.Settings.clone()
	for i := range s.Signatures {
		for j := range s.Signatures[i].Placements {
			pl := &s.Signatures[i].Placements[j]
			if pl.AssignedTo != "" && !isSignerEmail(s.Recipients, pl.AssignedTo) {
				pl.AssignedTo = ""
			}
		}
	}
}

// Placements flattens all placements in signature order.
func (s *Session) Placements() []Placement {
	var out []Placement
	for _, sig := range s.Signatures {
		out = append(out, sig.Placements...)
	}
	return out
}

// PlacementAssignments derives the placement id to recipient email map from
// the placements' assignedTo fields.
func (s *Session) PlacementAssignments() map[string]string {
	m := make(map[string]string)
	for _, pl := range s.Placements() {
		if pl.AssignedTo != "" {
			m[pl.ID] = pl.AssignedTo
		}
	}
	return m
}

// Clear drops every signature, recipient and setting, keeping the file.
func (s *Session) Clear() {
	s.Signatures = []Signature{}
	s.Recipients = []Recipient{}
	s.ShareSettings = DefaultShareSettings()
}

func (s *Session) checkPage(page int) error {
	if page < 0 || (s.NumPages > 0 && page >= s.NumPages) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrPageOutOfRange, page, s.NumPages)
	}
	return nil
}

func (s *Session) signatureIndex(id string) int {
	for i := range s.Signatures {
		if s.Signatures[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) findPlacement(id string) *Placement {
	for i := range s.Signatures {
		for j := range s.Signatures[i].Placements {
			if s.Signatures[i].Placements[j].ID == id {
				return &s.Signatures[i].Placements[j]
			}
		}
	}
	return nil
}
