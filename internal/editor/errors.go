package editor

import "errors"

var (
	ErrSignatureNotFound = errors.New("signature not found")
	ErrPlacementNotFound = errors.New("placement not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrPageOutOfRange    = errors.New("page out of range")
	ErrEmptyField        = errors.New("signature field is empty")
	ErrTypeMismatch      = errors.New("signature type mismatch")
	ErrEmptySelection    = errors.New("recipient email is required")
	ErrNotSigner         = errors.New("recipient is not a signer")
	ErrInvalidRecipients = errors.New("invalid recipients")
	ErrNoRecipients      = errors.New("at least one recipient is required")
	ErrUnassigned        = errors.New("placements without recipient")
	ErrNoPlacements      = errors.New("no placements")
	ErrUnknownSetting    = errors.New("unknown share setting")
	ErrInvalidSetting    = errors.New("invalid share setting value")
	ErrInvalidDataURL    = errors.New("invalid data url")
)
