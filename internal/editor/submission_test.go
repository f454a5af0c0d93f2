package editor

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	s := newTestSession(2)
	s.ApplySignatures(Author(AuthorInput{
		FullName:       "Jane Doe",
		DrawnSignature: EncodeDataURL("image/png", []byte("raster")),
		Image:          &ImageRef{Key: "esign-images/logo.png", FileName: "logo.png", ContentType: "image/png"},
	}, s.ids()))
	require.Len(t, s.Signatures, 3)
	for _, sig := range s.Signatures {
		_, err := s.AddPlacement(sig.ID, 1)
		require.NoError(t, err)
	}
	_, err := s.AddPlacement(s.Signatures[0].ID, 0)
	require.NoError(t, err)

	asm, err := Assemble(s)
	require.NoError(t, err)
	require.Len(t, asm.Placements, 4)
	require.Len(t, asm.Attachments, 2)

	text := asm.Placements[0]
	assert.Equal(t, TypeFullName, text.Type)
	assert.Empty(t, text.Attachment)
	assert.Equal(t, DefaultFontSize, text.FontSize)

	drawn := asm.Placements[2]
	assert.Equal(t, TypeSignature, drawn.Type)
	assert.Equal(t, drawn.ID, drawn.Attachment)
	assert.Equal(t, "signature-"+drawn.ID+".png", drawn.ImageFileName)
	assert.Empty(t, drawn.SignatureData, "raster travels as an attachment")
	assert.Equal(t, []byte("raster"), asm.Attachments[0].Data)
	assert.Equal(t, "image/png", asm.Attachments[0].ContentType)

	img := asm.Placements[3]
	assert.Equal(t, "logo.png", img.ImageFileName)
	assert.Equal(t, img.ID, asm.Attachments[1].Field)
	assert.Equal(t, "esign-images/logo.png", asm.Attachments[1].Image.Key)

	// Non-text placements still carry resolved defaults.
	assert.Equal(t, DefaultColor, img.Color)
	assert.Equal(t, FontStyles[0].Family, img.FontFamily)
}

func TestAssemble_BadDataURL(t *testing.T) {
	s := newTestSession(1)
	s.ApplySignatures(Author(AuthorInput{DrawnSignature: "not-a-data-url"}, s.ids()))
	_, err := s.AddPlacement(s.Signatures[0].ID, 0)
	require.NoError(t, err)

	_, err = Assemble(s)
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestRequireAssigned(t *testing.T) {
	assert.NoError(t, RequireAssigned(nil))
	assert.NoError(t, RequireAssigned([]Placement{{ID: "1", AssignedTo: "a@example.com"}}))

	err := RequireAssigned([]Placement{
		{ID: "1", AssignedTo: "a@example.com"},
		{ID: "2"},
		{ID: "3", AssignedTo: " "},
	})
	require.ErrorIs(t, err, ErrUnassigned)
	assert.Contains(t, err.Error(), "2 of 3")
}

func TestImageCount(t *testing.T) {
	s := newTestSession(1)
	s.ApplySignatures(Author(AuthorInput{
		FullName:       "A",
		DrawnSignature: "data:image/png;base64,AA==",
		UploadedSign:   &ImageRef{FileName: "u.png"},
		Image:          &ImageRef{FileName: "i.png"},
	}, s.ids()))
	assert.Equal(t, 3, ImageCount(s))
}

func TestDataURL(t *testing.T) {
	mime, data, err := DecodeDataURL(EncodeDataURL("image/jpeg", []byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte{1, 2, 3}, data)

	mime, data, err = DecodeDataURL("data:,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, "hello world", string(data))

	_, _, err = DecodeDataURL("data:image/png;base64")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
	_, _, err = DecodeDataURL("data:image/png;base64,@@@")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestCanvas(t *testing.T) {
	c, err := NewCanvas(40, 20, "#ff0000")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	// Move before Down is ignored.
	c.Move(5, 5)
	c.Down(2, 10)
	c.Move(20, 10)
	c.Move(38, 10)
	url, err := c.Up()
	require.NoError(t, err)
	assert.False(t, c.Empty())

	mime, raw, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	r, _, _, a := img.At(20, 10).RGBA()
	assert.NotZero(t, a, "stroke pixel is inked")
	assert.NotZero(t, r)
	_, _, _, a = img.At(20, 2).RGBA()
	assert.Zero(t, a, "background stays transparent")
}

func TestCanvas_Replay(t *testing.T) {
	c, err := NewCanvas(CanvasWidth, CanvasHeight, "")
	require.NoError(t, err)
	url, err := c.Replay([]Stroke{{{X: 10, Y: 10}, {X: 100, Y: 50}}, {}, {{X: 200, Y: 100}}})
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Len(t, c.strokes, 2)

	leave, err := c.Leave()
	require.NoError(t, err)
	assert.Equal(t, url, leave)

	_, err = NewCanvas(0, 10, "")
	assert.Error(t, err)
	_, err = NewCanvas(10, 10, "red")
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#0a0B0c")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x0a), c.R)
	assert.Equal(t, uint8(0x0b), c.G)
	assert.Equal(t, uint8(0x0c), c.B)

	c, err = ParseHexColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), c.G)

	_, err = ParseHexColor("#12345")
	assert.Error(t, err)
	_, err = ParseHexColor("#gggggg")
	assert.Error(t, err)
}
