// Package pdfinfo reads the page structure of uploaded PDFs so placements can
// be bounds-checked against the real document.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned for payloads that do not parse as a PDF.
var ErrNotPDF = errors.New("not a readable pdf")

// PageSize is a page's MediaBox extent in PDF points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info describes a parsed document.
type Info struct {
	NumPages int        `json:"num_pages"`
	Pages    []PageSize `json:"pages"`
}

// Inspect parses data and returns its page count and page sizes. Pages
// without a resolvable MediaBox report a zero size.
func Inspect(data []byte) (info Info, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Info{}, ErrNotPDF
	}
	// The parser panics on some malformed cross reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	n := r.NumPage()
	if n <= 0 {
		return Info{}, fmt.Errorf("%w: no pages", ErrNotPDF)
	}

	info.NumPages = n
	info.Pages = make([]PageSize, n)
	for i := 1; i <= n; i++ {
		info.Pages[i-1] = mediaBox(r.Page(i).V)
	}
	return info, nil
}

// CountPages is Inspect reduced to the page count.
func CountPages(data []byte) (int, error) {
	info, err := Inspect(data)
	if err != nil {
		return 0, err
	}
	return info.NumPages, nil
}

// mediaBox walks up the page tree since MediaBox is inheritable.
func mediaBox(v pdf.Value) PageSize {
	for depth := 0; v.Kind() == pdf.Dict && depth < 32; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return PageSize{
				Width:  box.Index(2).Float64() - box.Index(0).Float64(),
				Height: box.Index(3).Float64() - box.Index(1).Float64(),
			}
		}
		v = v.Key("Parent")
	}
	return PageSize{}
}
