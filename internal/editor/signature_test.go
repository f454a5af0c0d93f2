package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthor(t *testing.T) {
	img := &ImageRef{Key: "esign-images/logo.png", FileName: "logo.png", ContentType: "image/png", Size: 10}
	upl := &ImageRef{Key: "esign-images/sign.png", FileName: "sign.png", ContentType: "image/png", Size: 12}

	tests := []struct {
		name      string
		in        AuthorInput
		wantTypes []SignatureType
	}{
		{
			name: "all empty yields nothing",
			in:   AuthorInput{},
		},
		{
			name: "whitespace only is empty",
			in:   AuthorInput{FullName: "   ", Initials: "\t", FreeText: " "},
		},
		{
			name:      "full name only",
			in:        AuthorInput{FullName: "Jane Doe"},
			wantTypes: []SignatureType{TypeFullName},
		},
		{
			name: "every field in fixed order",
			in: AuthorInput{
				FullName:       "Jane Doe",
				Initials:       "JD",
				FreeText:       "Approved",
				DrawnSignature: "data:image/png;base64,AAAA",
				UploadedSign:   upl,
				Image:          img,
			},
			wantTypes: []SignatureType{TypeFullName, TypeInitials, TypeFreeText, TypeSignature, TypeSignature, TypeImage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Author(tt.in, &SequenceGenerator{})
			var types []SignatureType
			for _, s := range got {
				types = append(types, s.Type)
			}
			assert.Equal(t, tt.wantTypes, types)
			assert.Equal(t, len(tt.wantTypes) == 0, tt.in.Empty())
		})
	}
}

func TestAuthor_Defaults(t *testing.T) {
	in := AuthorInput{
		FullName: "Jane Doe",
		FreeText: "Note",
		Styles: StyleSlots{
			Name:     StyleChoice{FontStyle: "serif", Color: "#112233"},
			FreeText: StyleChoice{},
		},
		DrawnSignature: "data:image/png;base64,AAAA",
		UploadedSign:   &ImageRef{FileName: "s.png"},
	}
	got := Author(in, &SequenceGenerator{})
	require.Len(t, got, 4)

	name := got[0]
	assert.Equal(t, "fullName-1", name.ID)
	assert.Equal(t, "Jane Doe", name.Text)
	assert.Equal(t, "serif", name.FontStyle)
	assert.Equal(t, "'Merriweather', serif", name.FontFamily)
	assert.Equal(t, "#112233", name.Color)
	assert.Equal(t, DefaultFontSize, name.FontSize)
	assert.Equal(t, float64(TextWidth), name.Width)
	assert.Equal(t, float64(TextHeight), name.Height)

	free := got[1]
	assert.Equal(t, "cursive", free.FontStyle)
	assert.Equal(t, DefaultColor, free.Color)

	drawn := got[2]
	assert.Equal(t, FieldSignatureData, drawn.Field())
	assert.Equal(t, float64(DrawnWidth), drawn.Width)
	assert.Equal(t, float64(DrawnHeight), drawn.Height)

	uploaded := got[3]
	assert.True(t, uploaded.Uploaded)
	assert.Equal(t, FieldImageFile, uploaded.Field())
	assert.Equal(t, "uploadedSign-4", uploaded.ID)
	assert.NotSame(t, in.UploadedSign, uploaded.ImageFile)
}

func TestAuthorEdit(t *testing.T) {
	gen := &SequenceGenerator{}
	sigs := Author(AuthorInput{
		FullName:       "Jane Doe",
		DrawnSignature: "data:image/png;base64,AAAA",
		Image:          &ImageRef{FileName: "a.png"},
	}, gen)
	require.Len(t, sigs, 3)
	sigs[0].Placements = []Placement{{ID: "p-1", Text: "Jane Doe"}}

	t.Run("text edit keeps id and placements", func(t *testing.T) {
		got, err := AuthorEdit(sigs[0], AuthorInput{FullName: "John Roe", Initials: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, sigs[0].ID, got.ID)
		assert.Equal(t, "John Roe", got.Text)
		assert.Equal(t, "Jane Doe", got.Placements[0].Text)
	})

	t.Run("text edit ignores other fields", func(t *testing.T) {
		_, err := AuthorEdit(sigs[0], AuthorInput{Initials: "JR", FreeText: "x"})
		assert.True(t, errors.Is(err, ErrEmptyField))
	})

	t.Run("drawn edit", func(t *testing.T) {
		got, err := AuthorEdit(sigs[1], AuthorInput{DrawnSignature: "data:image/png;base64,BBBB"})
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,BBBB", got.SignatureData)
	})

	t.Run("image edit requires image", func(t *testing.T) {
		_, err := AuthorEdit(sigs[2], AuthorInput{UploadedSign: &ImageRef{FileName: "b.png"}})
		assert.ErrorIs(t, err, ErrEmptyField)

		got, err := AuthorEdit(sigs[2], AuthorInput{Image: &ImageRef{FileName: "b.png"}})
		require.NoError(t, err)
		assert.Equal(t, "b.png", got.ImageFile.FileName)
	})
}

func TestStyleSlots(t *testing.T) {
	slots := StyleSlots{
		Name:     StyleChoice{FontStyle: "sans", Color: "#ff0000"},
		FreeText: StyleChoice{FontStyle: "handwriting"},
	}
	want := TextStyle{FontFamily: "'Montserrat', sans-serif", FontStyle: "sans", Color: "#ff0000", FontSize: DefaultFontSize}
	if diff := cmp.Diff(want, slots.Style(TypeFullName)); diff != "" {
		t.Errorf("fullName style (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, slots.Style(TypeInitials)); diff != "" {
		t.Errorf("initials style (-want +got):\n%s", diff)
	}
	assert.Equal(t, "'Dancing Script', cursive", slots.Style(TypeFreeText).FontFamily)
}

func TestSignatureType(t *testing.T) {
	assert.True(t, TypeFreeText.Valid())
	assert.False(t, SignatureType("stamp").Valid())
	assert.True(t, TypeInitials.IsText())
	assert.False(t, TypeImage.IsText())
	assert.Equal(t, FieldSignatureData, TypeSignature.RequiredField(false))
	assert.Equal(t, FieldImageFile, TypeSignature.RequiredField(true))
	assert.Equal(t, "imageFile", FieldImageFile.String())
}
