// Package editor models the e-signature placement editor: signature
// templates, their page-anchored placements, the recipient list of a
// multi-party share and the assembly of the final sign request.
//
// The package performs no I/O. Callers load a Session, apply operations and
// persist the result.
package editor

import "strings"

// SignatureType tags the kind of content a Signature or Placement carries.
type SignatureType string

const (
	TypeFullName  SignatureType = "fullName"
	TypeInitials  SignatureType = "initials"
	TypeFreeText  SignatureType = "freeText"
	TypeSignature SignatureType = "signature"
	TypeImage     SignatureType = "image"
)

// Field identifies which payload of a signature is meaningful.
type Field int

const (
	FieldText Field = iota + 1
	FieldSignatureData
	FieldImageFile
)

func (f Field) String() string {
	switch f {
	case FieldText:
		return "text"
	case FieldSignatureData:
		return "signatureData"
	case FieldImageFile:
		return "imageFile"
	default:
		return "unknown"
	}
}

var requiredFields = map[SignatureType]Field{
	TypeFullName:  FieldText,
	TypeInitials:  FieldText,
	TypeFreeText:  FieldText,
	TypeSignature: FieldSignatureData,
	TypeImage:     FieldImageFile,
}

// Valid reports whether t is one of the known signature types.
func (t SignatureType) Valid() bool {
	_, ok := requiredFields[t]
	return ok
}

// IsText reports whether t renders as styled text.
func (t SignatureType) IsText() bool {
	return requiredFields[t] == FieldText
}

// RequiredField returns the payload field for t. A signature that was
// uploaded as an image file instead of drawn carries FieldImageFile.
func (t SignatureType) RequiredField(uploaded bool) Field {
	if t == TypeSignature && uploaded {
		return FieldImageFile
	}
	return requiredFields[t]
}

// Default box sizes and placement origin.
const (
	TextWidth       = 200
	TextHeight      = 40
	DrawnWidth      = 150
	DrawnHeight     = 80
	ImageWidth      = 100
	ImageHeight     = 100
	DefaultX        = 50
	DefaultY        = 50
	DefaultFontSize = 24
	DefaultColor    = "#000000"
	DefaultFreeText = "Type here"
)

func defaultSize(t SignatureType, uploaded bool) (float64, float64) {
	switch t.RequiredField(uploaded) {
	case FieldText:
		return TextWidth, TextHeight
	case FieldSignatureData:
		return DrawnWidth, DrawnHeight
	default:
		return ImageWidth, ImageHeight
	}
}

// FontStyle is an entry of the font catalog offered for text signatures.
type FontStyle struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Family string `json:"fontFamily"`
}

// FontStyles is the font catalog. The first entry is the default.
var FontStyles = []FontStyle{
	{Key: "cursive", Label: "Cursive", Family: "'Great Vibes', cursive"},
	{Key: "serif", Label: "Elegant Serif", Family: "'Merriweather', serif"},
	{Key: "sans", Label: "Modern Sans", Family: "'Montserrat', sans-serif"},
	{Key: "handwriting", Label: "Handwriting", Family: "'Dancing Script', cursive"},
	{Key: "signature1", Label: "Signature Style", Family: "'Satisfy', cursive"},
	{Key: "signature2", Label: "Bold Signature", Family: "'Pacifico', cursive"},
}

// LookupFontStyle finds a catalog entry by key.
func LookupFontStyle(key string) (FontStyle, bool) {
	for _, fs := range FontStyles {
		if fs.Key == key {
			return fs, true
		}
	}
	return FontStyle{}, false
}

// TextStyle holds the rendering attributes of text content.
type TextStyle struct {
	FontFamily string `json:"fontFamily,omitempty"`
	FontStyle  string `json:"fontStyle,omitempty"`
	Color      string `json:"color,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"`
}

// Resolved fills unset attributes with catalog defaults.
func (s TextStyle) Resolved() TextStyle {
	if s.FontStyle == "" {
		s.FontStyle = FontStyles[0].Key
	}
	if s.FontFamily == "" {
		fs, ok := LookupFontStyle(s.FontStyle)
		if !ok {
			fs = FontStyles[0]
		}
		s.FontFamily = fs.Family
	}
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	return s
}

// ImageRef points at an uploaded binary held in object storage.
type ImageRef struct {
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func (r *ImageRef) clone() *ImageRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
