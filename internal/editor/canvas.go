package editor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"
)

// Point is a pointer position in canvas pixels.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Stroke is one continuous pointer-down to pointer-up path.
type Stroke []Point

// Default drawing surface.
const (
	CanvasWidth     = 500
	CanvasHeight    = 200
	CanvasLineWidth = 2
)

// Canvas captures a hand-drawn signature. Down begins a path, Move extends
// it while drawing, Up or Leave finalizes it and returns a PNG snapshot of
// everything drawn so far.
type Canvas struct {
	width     int
	height    int
	lineWidth float32
	ink       color.Color
	strokes   []Stroke
	current   Stroke
	drawing   bool
}

// NewCanvas creates a transparent canvas drawing in the given "#rrggbb" color.
func NewCanvas(width, height int, hex string) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d", width, height)
	}
	ink, err := ParseHexColor(hex)
	if err != nil {
		return nil, err
	}
	return &Canvas{width: width, height: height, lineWidth: CanvasLineWidth, ink: ink}, nil
}

// Down starts a new path at (x, y).
func (c *Canvas) Down(x, y float32) {
	c.drawing = true
	c.current = Stroke{{X: x, Y: y}}
}

// Move extends the current path; it is ignored unless drawing.
func (c *Canvas) Move(x, y float32) {
	if !c.drawing {
		return
	}
	c.current = append(c.current, Point{X: x, Y: y})
}

// Up finalizes the current path and snapshots the canvas.
func (c *Canvas) Up() (string, error) {
	if c.drawing && len(c.current) > 0 {
		c.strokes = append(c.strokes, c.current)
	}
	c.drawing = false
	c.current = nil
	return c.Snapshot()
}

// Leave behaves like Up when the pointer exits the surface.
func (c *Canvas) Leave() (string, error) {
	return c.Up()
}

// Empty reports whether nothing has been drawn.
func (c *Canvas) Empty() bool {
	return len(c.strokes) == 0
}

// Replay feeds recorded strokes through Down/Move/Up and returns the final
// snapshot.
func (c *Canvas) Replay(strokes []Stroke) (string, error) {
	var (
		out string
		err error
	)
	for _, s := range strokes {
		if len(s) == 0 {
			continue
		}
		c.Down(s[0].X, s[0].Y)
		for _, p := range s[1:] {
			c.Move(p.X, p.Y)
		}
		if out, err = c.Up(); err != nil {
			return "", err
		}
	}
	return out, nil
}

// Snapshot renders every finished stroke into a PNG data URL.
func (c *Canvas) Snapshot() (string, error) {
	img := image.NewNRGBA(image.Rect(0, 0, c.width, c.height))
	src := image.NewUniform(c.ink)
	r := vector.NewRasterizer(c.width, c.height)
	half := c.lineWidth / 2
	for _, s := range c.strokes {
		if len(s) == 1 {
			r.Reset(c.width, c.height)
			p := s[0]
			r.MoveTo(p.X-half, p.Y-half)
			r.LineTo(p.X+half, p.Y-half)
			r.LineTo(p.X+half, p.Y+half)
			r.LineTo(p.X-half, p.Y+half)
			r.ClosePath()
			r.Draw(img, img.Bounds(), src, image.Point{})
			continue
		}
		for i := 1; i < len(s); i++ {
			r.Reset(c.width, c.height)
			if !segment(r, s[i-1], s[i], half) {
				continue
			}
			r.Draw(img, img.Bounds(), src, image.Point{})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return EncodeDataURL("image/png", buf.Bytes()), nil
}

// segment adds the quad covering a line of width 2*half from a to b.
func segment(r *vector.Rasterizer, a, b Point, half float32) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return false
	}
	nx, ny := -dy/l*half, dx/l*half
	r.MoveTo(a.X+nx, a.Y+ny)
	r.LineTo(b.X+nx, b.Y+ny)
	r.LineTo(b.X-nx, b.Y-ny)
	r.LineTo(a.X-nx, a.Y-ny)
	r.ClosePath()
	return true
}

// ParseHexColor parses "#rrggbb" or "#rgb". An empty string is black.
func ParseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{A: 0xff}, nil
	}
	h, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
