package model

import (
	"strings"
	"time"

	"esignapi/internal/editor"
)

// MemberStatus tracks a recipient's progress on a shared document.
type MemberStatus string

const (
	MemberPending MemberStatus = "pending"
	MemberSigned  MemberStatus = "signed"
	MemberExpired MemberStatus = "expired"
)

// ScheduleKind is the kind of a timed follow-up attached to a share.
type ScheduleKind string

const (
	ScheduleReminder ScheduleKind = "reminder"
	ScheduleExpire   ScheduleKind = "expireDate"
)

// ScheduleStatus is the lifecycle of a schedule row.
type ScheduleStatus string

const (
	ScheduleActive   ScheduleStatus = "active"
	ScheduleInactive ScheduleStatus = "inactive"
	ScheduleExpired  ScheduleStatus = "expired"
)

// SharedDoc is a document sent out for signing. Placements carry the
// recipient each box is assigned to.
type SharedDoc struct {
	ID         string               `json:"id"`
	OwnerID    string               `json:"owner_id"`
	OwnerName  string               `json:"owner_name"`
	FileName   string               `json:"file_name"`
	FilePath   string               `json:"file_path"`
	Settings   editor.ShareSettings `json:"settings"`
	Placements []editor.Placement   `json:"placements"`
	CreatedAt  time.Time            `json:"created_at"`
}

// PlacementsFor returns the placements assigned to email, compared
// case-insensitively.
func (d SharedDoc) PlacementsFor(email string) []editor.Placement {
	out := make([]editor.Placement, 0)
	for _, p := range d.Placements {
		if p.AssignedTo != "" && strings.EqualFold(p.AssignedTo, email) {
			out = append(out, p)
		}
	}
	return out
}

// Member is one recipient of a SharedDoc. NextID links to the member who
// receives the document after this one signs when signing order is enforced.
type Member struct {
	ID             string          `json:"id"`
	FileID         string          `json:"file_id"`
	Position       int             `json:"position"`
	UserName       string          `json:"user_name"`
	Email          string          `json:"email_id"`
	Role           editor.Role     `json:"user_role"`
	PasswordHash   string          `json:"-"`
	AllowedFormats []editor.Format `json:"user_validation"`
	Status         MemberStatus    `json:"status"`
	NextID         string          `json:"next_id,omitempty"`
	SignedFilePath string          `json:"signed_file_path,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Protected reports whether the member must present a password.
func (m Member) Protected() bool {
	return m.PasswordHash != ""
}

// Schedule is a reminder or expiry follow-up for a share. NextNotify is a
// calendar date; the zero value means unscheduled.
type Schedule struct {
	ID         string         `json:"id"`
	FileID     string         `json:"file_id"`
	Kind       ScheduleKind   `json:"cron_type"`
	PeriodDays int            `json:"notify_period"`
	NextNotify time.Time      `json:"next_notify"`
	Status     ScheduleStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SharedDocSummary is one row of an owner's document history.
type SharedDocSummary struct {
	SharedDoc
	Members int `json:"members"`
	Signed  int `json:"signed"`
	Pending int `json:"pending"`
}
