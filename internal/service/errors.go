package service

import (
	"errors"

	"esignapi/internal/editor"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("not found")
	ErrReaderNil     = errors.New("reader is nil")
	ErrOwnerRequired = errors.New("owner is required")
	ErrInvalidPDF    = errors.New("file is not a valid pdf")
	ErrInvalidImage  = errors.New("file is not a supported image")

	// ErrAlreadySigned is a warning: the member's signed copy is kept.
	ErrAlreadySigned     = errors.New("document already signed")
	ErrExpired           = errors.New("share has expired")
	ErrPasswordRequired  = errors.New("password is required")
	ErrWrongPassword     = errors.New("password is incorrect")
	ErrNotYourTurn       = errors.New("an earlier recipient has not signed yet")
	ErrNothingToSign     = errors.New("no placements to sign")
	ErrDocumentUnhandled = errors.New("document path is not a temporary upload")
)

// ValidationError carries per-recipient field messages of a rejected share
// form. It unwraps to editor.ErrInvalidRecipients.
type ValidationError struct {
	Errors editor.RecipientErrors
	Err    error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }
