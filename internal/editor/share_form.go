package editor

import "fmt"

// ShareSubmission is what a successfully validated share form hands over.
type ShareSubmission struct {
	Recipients []Recipient   `json:"recipients"`
	Settings   ShareSettings `json:"settings"`
}

// RecipientUpdate carries the fields to change on one recipient.
type RecipientUpdate struct {
	Name           *string   `json:"name,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Role           *Role     `json:"role,omitempty"`
	Password       *string   `json:"password,omitempty"`
	AllowedFormats *[]Format `json:"allowedFormats,omitempty"`
}

// ShareForm collects recipients and global settings before a share.
type ShareForm struct {
	Recipients   []Recipient
	Settings     ShareSettings
	AllowReorder bool
	ApplyToAll   bool
	ActiveID     string
	Errors       RecipientErrors

	gen IDGenerator
}

// NewShareForm opens a form seeded with one blank recipient and the default
// settings.
func NewShareForm(gen IDGenerator, allowReorder bool) *ShareForm {
	f := &ShareForm{
		Settings:     DefaultShareSettings(),
		AllowReorder: allowReorder,
		Errors:       RecipientErrors{},
		gen:          gen,
	}
	f.AddRecipient()
	return f
}

// LoadShareForm opens a form over an existing recipient list.
func LoadShareForm(gen IDGenerator, recipients []Recipient, settings ShareSettings, allowReorder bool) *ShareForm {
	return &ShareForm{
		Recipients:   cloneRecipients(recipients),
		Settings:     settings.clone(),
		AllowReorder: allowReorder,
		Errors:       RecipientErrors{},
		gen:          gen,
	}
}

// AddRecipient appends a blank signer.
func (f *ShareForm) AddRecipient() Recipient {
	r := NewRecipient(f.gen.NewID("recipient"))
	if f.ApplyToAll && f.ActiveID != "" {
		f.Recipients = append(f.Recipients, r)
		f.Recipients = ApplySync(f.Recipients, f.ActiveID, true)
		return f.Recipients[len(f.Recipients)-1]
	}
	f.Recipients = append(f.Recipients, r)
	return r
}

// RemoveRecipient drops a recipient and its errors.
func (f *ShareForm) RemoveRecipient(id string) {
	out := f.Recipients[:0]
	for _, r := range f.Recipients {
		if r.ID != id {
			out = append(out, r)
		}
	}
	f.Recipients = out
	delete(f.Errors, id)
	if f.ActiveID == id {
		f.ActiveID = ""
	}
}

// Move reorders recipients when reordering is allowed. It reports whether
// the list changed.
func (f *ShareForm) Move(from, to int) bool {
	if !f.AllowReorder || from == to {
		return false
	}
	if from < 0 || from >= len(f.Recipients) || to < 0 || to >= len(f.Recipients) {
		return false
	}
	f.Recipients = Move(f.Recipients, from, to)
	return true
}

// SetActive selects the recipient whose settings panel is open.
func (f *ShareForm) SetActive(id string) {
	f.ActiveID = id
	if f.ApplyToAll {
		f.Recipients = ApplySync(f.Recipients, f.ActiveID, true)
	}
}

// SetApplyToAll toggles propagation of the active recipient's password and
// allowed formats.
func (f *ShareForm) SetApplyToAll(enabled bool) {
	f.ApplyToAll = enabled
	f.Recipients = ApplySync(f.Recipients, f.ActiveID, enabled)
}

// Update changes fields of one recipient and clears their errors. Editing the
// active recipient while apply-to-all is on re-syncs the others.
func (f *ShareForm) Update(id string, u RecipientUpdate) error {
	idx := -1
	for i := range f.Recipients {
		if f.Recipients[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRecipientNotFound, id)
	}
	r := &f.Recipients[idx]
	if u.Name != nil {
		r.Name = *u.Name
		f.clearError(id, "name")
	}
	if u.Email != nil {
		r.Email = *u.Email
		f.clearError(id, "email")
	}
	if u.Role != nil {
		r.Role = *u.Role
	}
	if u.Password != nil {
		r.Password = *u.Password
	}
	if u.AllowedFormats != nil {
		r.AllowedFormats = append([]Format(nil), (*u.AllowedFormats)...)
	}
	if f.ApplyToAll && id == f.ActiveID {
		f.Recipients = ApplySync(f.Recipients, f.ActiveID, true)
	}
	return nil
}

// ToggleSetting enables or disables a global setting.
func (f *ShareForm) ToggleSetting(key SettingKey) error {
	s, err := f.Settings.Toggle(key)
	if err != nil {
		return err
	}
	f.Settings = s
	return nil
}

// SetSettingValue changes the day count of an enabled numeric setting.
func (f *ShareForm) SetSettingValue(key SettingKey, value string) {
	f.Settings = f.Settings.SetValue(key, value)
}

// Submit validates the form. On failure Errors holds one message per
// offending field and the returned error wraps ErrInvalidRecipients.
func (f *ShareForm) Submit() (ShareSubmission, error) {
	if len(f.Recipients) == 0 {
		return ShareSubmission{}, ErrNoRecipients
	}
	ok, errs := ValidateRecipients(f.Recipients)
	f.Errors = errs
	if !ok {
		return ShareSubmission{}, fmt.Errorf("%w: %d recipient(s)", ErrInvalidRecipients, len(errs))
	}
	for _, r := range f.Recipients {
		if !r.Role.Valid() {
			return ShareSubmission{}, fmt.Errorf("%w: role %q", ErrInvalidRecipients, r.Role)
		}
		for _, fm := range r.AllowedFormats {
			if !fm.Valid() {
				return ShareSubmission{}, fmt.Errorf("%w: format %q", ErrInvalidRecipients, fm)
			}
		}
	}
	if err := f.Settings.Validate(); err != nil {
		return ShareSubmission{}, err
	}
	return ShareSubmission{
		Recipients: cloneRecipients(f.Recipients),
		Settings:   f.Settings.clone(),
	}, nil
}

func (f *ShareForm) clearError(id, field string) {
	fe, ok := f.Errors[id]
	if !ok {
		return
	}
	delete(fe, field)
	if len(fe) == 0 {
		delete(f.Errors, id)
	}
}
