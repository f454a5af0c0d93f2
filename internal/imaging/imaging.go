// Package imaging validates uploaded signature and stamp images before they
// are stored.
package imaging

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupported = errors.New("unsupported image format")
	ErrTooLarge    = errors.New("image dimensions too large")
)

// MaxDimension caps either side of an accepted image in pixels.
const MaxDimension = 8000

// headerWindow bounds how much of the stream is buffered to find the image
// header. JPEGs with large EXIF blocks need more than a few KiB.
const headerWindow = 64 << 10

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// Info is the decoded header of an image.
type Info struct {
	Format      string
	ContentType string
	Width       int
	Height      int
}

// Inspect decodes only the image header from r and returns the reader to use
// for the full payload, which replays the consumed header bytes.
func Inspect(r io.Reader) (Info, io.Reader, error) {
	br := bufio.NewReaderSize(r, headerWindow)
	// DecodeConfig reads from the peeked copy so br still yields the whole
	// payload.
	head, err := br.Peek(headerWindow)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Info{}, nil, fmt.Errorf("read image header: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return Info{}, nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	ct, ok := contentTypes[format]
	if !ok {
		return Info{}, nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return Info{}, nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return Info{Format: format, ContentType: ct, Width: cfg.Width, Height: cfg.Height}, br, nil
}

// ContentType maps a decoder format name to its media type.
func ContentType(format string) (string, bool) {
	ct, ok := contentTypes[format]
	return ct, ok
}
