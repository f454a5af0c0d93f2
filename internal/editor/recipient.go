package editor

import (
	"regexp"
	"slices"
	"strings"
)

// Role of a recipient in a share.
type Role string

const (
	RoleSigner    Role = "signer"
	RoleViewer    Role = "viewer"
	RoleValidator Role = "validator"
	RoleWitness   Role = "witness"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSigner, RoleViewer, RoleValidator, RoleWitness:
		return true
	}
	return false
}

// Format is a signature input method a recipient may use.
type Format string

const (
	FormatAll          Format = "all"
	FormatText         Format = "text"
	FormatDraw         Format = "draw"
	FormatUploadedSign Format = "uploadedSign"
)

// Valid reports whether f is a known input method.
func (f Format) Valid() bool {
	switch f {
	case FormatAll, FormatText, FormatDraw, FormatUploadedSign:
		return true
	}
	return false
}

// Recipient is a party of a multi-signer share.
type Recipient struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Role           Role     `json:"role"`
	Password       string   `json:"password,omitempty"`
	AllowedFormats []Format `json:"allowedFormats"`
}

// NewRecipient returns a blank signer allowed every input method.
func NewRecipient(id string) Recipient {
	return Recipient{
		ID:             id,
		Role:           RoleSigner,
		AllowedFormats: []Format{FormatAll},
	}
}

// FieldErrors maps a recipient field name to its message.
type FieldErrors map[string]string

// RecipientErrors maps a recipient id to its field errors.
type RecipientErrors map[string]FieldErrors

const (
	MsgNameRequired  = "name is required"
	MsgEmailRequired = "email is required"
	MsgInvalidEmail  = "invalid email address"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateRecipients checks that every recipient has a name and a well formed
// email. It returns false with one message per offending field, keyed by
// recipient id.
func ValidateRecipients(recipients []Recipient) (bool, RecipientErrors) {
	errs := RecipientErrors{}
	for _, r := range recipients {
		fe := FieldErrors{}
		if blank(r.Name) {
			fe["name"] = MsgNameRequired
		}
		switch {
		case blank(r.Email):
			fe["email"] = MsgEmailRequired
		case !ValidEmail(r.Email):
			fe["email"] = MsgInvalidEmail
		}
		if len(fe) > 0 {
			errs[r.ID] = fe
		}
	}
	return len(errs) == 0, errs
}

// ApplySync propagates the active recipient's password and allowed formats to
// every other recipient when enabled. When disabled both fields are cleared
// on all recipients. The input slice is not modified.
func ApplySync(recipients []Recipient, activeID string, enabled bool) []Recipient {
	out := cloneRecipients(recipients)
	if !enabled {
		for i := range out {
			out[i].Password = ""
			out[i].AllowedFormats = []Format{}
		}
		return out
	}
	idx := slices.IndexFunc(out, func(r Recipient) bool { return r.ID == activeID })
	if idx < 0 {
		return out
	}
	src := out[idx]
	for i := range out {
		if i == idx {
			continue
		}
		out[i].Password = src.Password
		out[i].AllowedFormats = slices.Clone(src.AllowedFormats)
	}
	return out
}

// Move relocates the recipient at from to index to, keeping the relative
// order of the others. Out of range indices leave the list unchanged.
func Move(recipients []Recipient, from, to int) []Recipient {
	out := cloneRecipients(recipients)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	r := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, r)
}

// Signers returns the recipients with role signer, in list order.
func Signers(recipients []Recipient) []Recipient {
	var out []Recipient
	for _, r := range recipients {
		if r.Role == RoleSigner {
			out = append(out, r)
		}
	}
	return out
}

func isSignerEmail(recipients []Recipient, email string) bool {
	for _, r := range Signers(recipients) {
		if strings.EqualFold(r.Email, email) {
			return true
		}
	}
	return false
}

func cloneRecipients(in []Recipient) []Recipient {
	out := make([]Recipient, len(in))
	for i, r := range in {
		r.AllowedFormats = slices.Clone(r.AllowedFormats)
		out[i] = r
	}
	return out
}
