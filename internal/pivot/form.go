package pivot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"esignapi/internal/editor"
)

// Multipart field names of the sign request.
const (
	FieldPDF        = "pdf"
	FieldPlacements = "placements"
)

// Part is one binary attachment. Field is the placement id it belongs to.
type Part struct {
	Field       string
	FileName    string
	ContentType string
	Body        io.Reader
}

// SignRequest is the content of one sign call.
type SignRequest struct {
	PDF        io.Reader
	PDFName    string
	Placements []editor.PlacementRecord
	Parts      []Part
}

// WriteSignForm encodes sr as multipart/form-data onto w: the PDF, the
// placements as a JSON string, then one part per attachment. It returns the
// Content-Type header value including the boundary.
func WriteSignForm(w io.Writer, sr SignRequest) (string, error) {
	if sr.PDF == nil {
		return "", errors.New("pdf is required")
	}
	mw := multipart.NewWriter(w)

	name := sr.PDFName
	if name == "" {
		name = "document.pdf"
	}
	if err := writeFile(mw, FieldPDF, name, "application/pdf", sr.PDF); err != nil {
		return "", err
	}

	placements := sr.Placements
	if placements == nil {
		placements = []editor.PlacementRecord{}
	}
	raw, err := json.Marshal(placements)
	if err != nil {
		return "", fmt.Errorf("encode placements: %w", err)
	}
	if err := mw.WriteField(FieldPlacements, string(raw)); err != nil {
		return "", err
	}

	for _, p := range sr.Parts {
		if p.Body == nil {
			return "", fmt.Errorf("part %q has no body", p.Field)
		}
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := writeFile(mw, p.Field, p.FileName, ct, p.Body); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFile is multipart.Writer.CreateFormFile with a real content type.
func writeFile(mw *multipart.Writer, field, fileName, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", contentType)
	pw, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(pw, r); err != nil {
		return fmt.Errorf("write %s: %w", field, err)
	}
	return nil
}
