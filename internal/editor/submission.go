package editor

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// PlacementRecord is one entry of the outbound placements list: the
// placement with resolved styles and the multipart field carrying its
// binary, if any.
type PlacementRecord struct {
	Placement
	ImageFileName string `json:"imageFileName,omitempty"`
	Attachment    string `json:"attachment,omitempty"`
}

// Attachment is a binary part of the sign request. Exactly one of Image and
// Data is set: Image points at a stored upload, Data is a raster decoded
// from a drawn signature.
type Attachment struct {
	Field       string
	FileName    string
	ContentType string
	Image       *ImageRef
	Data        []byte
}

// Assembly is the flattened sign request content.
type Assembly struct {
	Placements  []PlacementRecord
	Attachments []Attachment
}

// Assemble flattens every placement of s in signature order, resolves text
// styles and derives one attachment per image or drawn placement, keyed by
// the placement id.
func Assemble(s *Session) (Assembly, error) {
	var out Assembly
	for _, pl := range s.Placements() {
		rec := PlacementRecord{Placement: pl}
		rec.Editing = false
		rec.TextStyle = pl.TextStyle.Resolved()
		switch {
		case pl.ImageFile != nil:
			rec.ImageFileName = pl.ImageFile.FileName
			rec.Attachment = pl.ID
			out.Attachments = append(out.Attachments, Attachment{
				Field:       pl.ID,
				FileName:    pl.ImageFile.FileName,
				ContentType: pl.ImageFile.ContentType,
				Image:       pl.ImageFile.clone(),
			})
		case pl.SignatureData != "":
			mime, data, err := DecodeDataURL(pl.SignatureData)
			if err != nil {
				return Assembly{}, fmt.Errorf("placement %s: %w", pl.ID, err)
			}
			name := "signature-" + pl.ID + ".png"
			rec.ImageFileName = name
			rec.Attachment = pl.ID
			rec.SignatureData = ""
			out.Attachments = append(out.Attachments, Attachment{
				Field:       pl.ID,
				FileName:    name,
				ContentType: mime,
				Data:        data,
			})
		}
		out.Placements = append(out.Placements, rec)
	}
	return out, nil
}

// ImageCount is the number of image or drawn signature templates, the unit
// the usage quota is charged in.
func ImageCount(s *Session) int {
	n := 0
	for _, sig := range s.Signatures {
		if sig.Type == TypeImage || sig.Type == TypeSignature {
			n++
		}
	}
	return n
}

// RequireAssigned fails with one aggregate error when any placement has no
// recipient.
func RequireAssigned(placements []Placement) error {
	n := 0
	for _, pl := range placements {
		if blank(pl.AssignedTo) {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrUnassigned, n, len(placements))
	}
	return nil
}

// DecodeDataURL decodes a base64 "data:" URL into its media type and bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}
	if !isBase64 {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
		return mime, []byte(data), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mime, data, nil
}

// EncodeDataURL is the inverse of DecodeDataURL for base64 payloads.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
