package editor

import "fmt"

// Signature is an authored annotation template. Placements spawned from it
// snapshot its content at creation time and evolve independently.
type Signature struct {
	ID   string        `json:"id"`
	Type SignatureType `json:"type"`
	Text string        `json:"text,omitempty"`
	TextStyle
	SignatureData string      `json:"signatureData,omitempty"`
	ImageFile     *ImageRef   `json:"imageFile,omitempty"`
	Uploaded      bool        `json:"uploaded,omitempty"`
	Width         float64     `json:"width"`
	Height        float64     `json:"height"`
	Placements    []Placement `json:"placements"`
}

// Field returns the payload field that is meaningful for s.
func (s Signature) Field() Field {
	return s.Type.RequiredField(s.Uploaded)
}

// Used reports whether s has been placed at least once.
func (s Signature) Used() bool {
	return len(s.Placements) > 0
}

// StyleChoice is the font style key and color picked for a text category.
type StyleChoice struct {
	FontStyle string `json:"fontStyle"`
	Color     string `json:"color"`
}

// StyleSlots holds the independent style selections of the authoring form:
// fullName and initials share Name, free text has its own slot.
type StyleSlots struct {
	Name     StyleChoice `json:"name"`
	FreeText StyleChoice `json:"freeText"`
}

// For returns the slot that styles t.
func (s StyleSlots) For(t SignatureType) StyleChoice {
	if t == TypeFreeText {
		return s.FreeText
	}
	return s.Name
}

// Style resolves the text style for t, used both for live previews and for
// the emitted signature.
func (s StyleSlots) Style(t SignatureType) TextStyle {
	c := s.For(t)
	return TextStyle{FontStyle: c.FontStyle, Color: c.Color}.Resolved()
}

// AuthorInput is everything the authoring form may carry in one submit.
type AuthorInput struct {
	FullName       string     `json:"fullName"`
	Initials       string     `json:"initials"`
	FreeText       string     `json:"freeText"`
	Styles         StyleSlots `json:"styles"`
	DrawnSignature string     `json:"drawnSignature"`
	UploadedSign   *ImageRef  `json:"uploadedSign,omitempty"`
	Image          *ImageRef  `json:"image,omitempty"`
}

// Empty reports whether no field was filled in.
func (in AuthorInput) Empty() bool {
	return blank(in.FullName) && blank(in.Initials) && blank(in.FreeText) &&
		blank(in.DrawnSignature) && in.UploadedSign == nil && in.Image == nil
}

// Author builds new signatures from the filled fields of in, in the order
// fullName, initials, freeText, drawn signature, uploaded signature, image.
// Empty fields are skipped; an empty input yields no signatures.
func Author(in AuthorInput, gen IDGenerator) []Signature {
	var out []Signature
	for _, t := range []SignatureType{TypeFullName, TypeInitials, TypeFreeText} {
		text := in.text(t)
		if blank(text) {
			continue
		}
		out = append(out, newTextSignature(gen.NewID(string(t)), t, text, in.Styles.Style(t)))
	}
	if !blank(in.DrawnSignature) {
		out = append(out, Signature{
			ID:            gen.NewID(string(TypeSignature)),
			Type:          TypeSignature,
			SignatureData: in.DrawnSignature,
			Width:         DrawnWidth,
			Height:        DrawnHeight,
		})
	}
	if in.UploadedSign != nil {
		out = append(out, Signature{
			ID:        gen.NewID("uploadedSign"),
			Type:      TypeSignature,
			Uploaded:  true,
			ImageFile: in.UploadedSign.clone(),
			Width:     ImageWidth,
			Height:    ImageHeight,
		})
	}
	if in.Image != nil {
		out = append(out, Signature{
			ID:        gen.NewID(string(TypeImage)),
			Type:      TypeImage,
			ImageFile: in.Image.clone(),
			Width:     ImageWidth,
			Height:    ImageHeight,
		})
	}
	return out
}

// AuthorEdit rewrites existing from the single field of in that matches its
// type. The id and the placements are preserved; placements keep the content
// they snapshotted.
func AuthorEdit(existing Signature, in AuthorInput) (Signature, error) {
	out := existing
	switch existing.Field() {
	case FieldText:
		text := in.text(existing.Type)
		if blank(text) {
			return Signature{}, fmt.Errorf("%w: %s", ErrEmptyField, existing.Type)
		}
		out.Text = text
		out.TextStyle = in.Styles.Style(existing.Type)
		out.TextStyle.FontSize = existing.FontSize
		out.TextStyle = out.TextStyle.Resolved()
	case FieldSignatureData:
		if blank(in.DrawnSignature) {
			return Signature{}, fmt.Errorf("%w: %s", ErrEmptyField, existing.Type)
		}
		out.SignatureData = in.DrawnSignature
	case FieldImageFile:
		ref := in.Image
		if existing.Type == TypeSignature {
			ref = in.UploadedSign
		}
		if ref == nil {
			return Signature{}, fmt.Errorf("%w: %s", ErrEmptyField, existing.Type)
		}
		out.ImageFile = ref.clone()
	default:
		return Signature{}, fmt.Errorf("%w: %q", ErrTypeMismatch, existing.Type)
	}
	return out, nil
}

func (in AuthorInput) text(t SignatureType) string {
	switch t {
	case TypeFullName:
		return in.FullName
	case TypeInitials:
		return in.Initials
	case TypeFreeText:
		return in.FreeText
	}
	return ""
}

func newTextSignature(id string, t SignatureType, text string, style TextStyle) Signature {
	w, h := defaultSize(t, false)
	return Signature{
		ID:        id,
		Type:      t,
		Text:      text,
		TextStyle: style,
		Width:     w,
		Height:    h,
	}
}
