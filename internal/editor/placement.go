package editor

// Placement is a signature instance anchored to one page of the document.
// Coordinates are page-local pixels with the origin at the top-left corner.
type Placement struct {
	ID     string        `json:"id"`
	Type   SignatureType `json:"type"`
	Page   int           `json:"page"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Text   string        `json:"text,omitempty"`
	TextStyle
	SignatureData string    `json:"signatureData,omitempty"`
	ImageFile     *ImageRef `json:"imageFile,omitempty"`
	AssignedTo    string    `json:"assignedTo,omitempty"`
	Editing       bool      `json:"editing,omitempty"`
}

// PlacementPatch is a partial update; nil fields are left untouched.
type PlacementPatch struct {
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Text       *string  `json:"text,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontStyle  *string  `json:"fontStyle,omitempty"`
	Color      *string  `json:"color,omitempty"`
	FontSize   *int     `json:"fontSize,omitempty"`
	Editing    *bool    `json:"editing,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PlacementPatch) Empty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Text == nil && p.FontFamily == nil && p.FontStyle == nil &&
		p.Color == nil && p.FontSize == nil && p.Editing == nil
}

func (pl *Placement) apply(p PlacementPatch) {
	if p.X != nil {
		pl.X = *p.X
	}
	if p.Y != nil {
		pl.Y = *p.Y
	}
	if p.Width != nil && *p.Width > 0 {
		pl.Width = *p.Width
	}
	if p.Height != nil && *p.Height > 0 {
		pl.Height = *p.Height
	}
	if p.Text != nil {
		pl.Text = *p.Text
	}
	if p.FontFamily != nil {
		pl.FontFamily = *p.FontFamily
	}
	if p.FontStyle != nil {
		pl.FontStyle = *p.FontStyle
	}
	if p.Color != nil {
		pl.Color = *p.Color
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		pl.FontSize = *p.FontSize
	}
	if p.Editing != nil {
		pl.Editing = *p.Editing
	}
}

// placeFrom snapshots the content of sig into a new placement. Nothing in the
// result refers back to sig.
func placeFrom(sig Signature, id string, page int) Placement {
	pl := Placement{
		ID:     id,
		Type:   sig.Type,
		Page:   page,
		X:      DefaultX,
		Y:      DefaultY,
		Width:  sig.Width,
		Height: sig.Height,
	}
	switch sig.Field() {
	case FieldText:
		pl.Text = sig.Text
		pl.TextStyle = sig.TextStyle
	case FieldSignatureData:
		pl.SignatureData = sig.SignatureData
	case FieldImageFile:
		pl.ImageFile = sig.ImageFile.clone()
	}
	if pl.Width <= 0 || pl.Height <= 0 {
		pl.Width, pl.Height = defaultSize(sig.Type, sig.Uploaded)
	}
	return pl
}
