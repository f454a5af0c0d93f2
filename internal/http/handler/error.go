package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"esignapi/internal/editor"
	"esignapi/internal/http/middleware"
	"esignapi/internal/pivot"
	"esignapi/internal/repository"
	"esignapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Fields holds per-recipient messages of a rejected share form.
	Fields editor.RecipientErrors `json:"fields,omitempty"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response. message must be
// safe to show to clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "upload is too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// Unauthorized rejects requests without a caller identity.
func Unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "please log in")
}

// TooManyRequests rejects rate limited requests.
func TooManyRequests(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down")
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; an empty message means the error's own
// text is shown, which holds for the domain errors declared in this module.
var errorMappings = []errorMapping{
	{service.ErrIDRequired, fiber.StatusBadRequest, "ID_REQUIRED", ""},
	{service.ErrOwnerRequired, fiber.StatusUnauthorized, "UNAUTHORIZED", "please log in"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
	{repository.ErrConflict, fiber.StatusConflict, "CONFLICT", "the session was changed elsewhere, reload and retry"},
	{service.ErrInvalidPDF, fiber.StatusBadRequest, "INVALID_PDF", "file is not a valid pdf"},
	{service.ErrInvalidImage, fiber.StatusBadRequest, "INVALID_IMAGE", "file is not a supported image"},
	{service.ErrDocumentUnhandled, fiber.StatusBadRequest, "DOCUMENT_UNHANDLED", ""},
	{service.ErrNothingToSign, fiber.StatusBadRequest, "NOTHING_TO_SIGN", ""},
	{service.ErrExpired, fiber.StatusGone, "EXPIRED", "this document has expired"},
	{service.ErrPasswordRequired, fiber.StatusUnauthorized, "PASSWORD_REQUIRED", ""},
	{service.ErrWrongPassword, fiber.StatusForbidden, "WRONG_PASSWORD", ""},
	{service.ErrNotYourTurn, fiber.StatusConflict, "NOT_YOUR_TURN", ""},
	{pivot.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "please log in"},
	{pivot.ErrQuotaExceeded, fiber.StatusForbidden, "QUOTA_EXCEEDED", "usage limit reached, upgrade your plan"},
	{pivot.ErrUpstream, fiber.StatusBadGateway, "UPSTREAM_ERROR", "signing failed, please try again"},
	{editor.ErrUnassigned, fiber.StatusUnprocessableEntity, "UNASSIGNED_PLACEMENTS", "every placement must be assigned to a recipient"},
	{editor.ErrNoRecipients, fiber.StatusUnprocessableEntity, "NO_RECIPIENTS", ""},
	{editor.ErrInvalidRecipients, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED", "some recipients are invalid"},
	{editor.ErrNoPlacements, fiber.StatusBadRequest, "NO_PLACEMENTS", "add a signature to the document first"},
	{editor.ErrSignatureNotFound, fiber.StatusNotFound, "SIGNATURE_NOT_FOUND", "signature not found"},
	{editor.ErrPlacementNotFound, fiber.StatusNotFound, "PLACEMENT_NOT_FOUND", "placement not found"},
	{editor.ErrRecipientNotFound, fiber.StatusNotFound, "RECIPIENT_NOT_FOUND", "recipient not found"},
	{editor.ErrPageOutOfRange, fiber.StatusBadRequest, "PAGE_OUT_OF_RANGE", ""},
	{editor.ErrEmptyField, fiber.StatusBadRequest, "EMPTY_FIELD", ""},
	{editor.ErrTypeMismatch, fiber.StatusBadRequest, "TYPE_MISMATCH", ""},
	{editor.ErrEmptySelection, fiber.StatusBadRequest, "EMAIL_REQUIRED", ""},
	{editor.ErrNotSigner, fiber.StatusBadRequest, "NOT_SIGNER", ""},
	{editor.ErrUnknownSetting, fiber.StatusBadRequest, "INVALID_SETTING", ""},
	{editor.ErrInvalidSetting, fiber.StatusBadRequest, "INVALID_SETTING", ""},
	{editor.ErrInvalidDataURL, fiber.StatusBadRequest, "INVALID_DATA_URL", ""},
}

// serviceError translates service and domain errors into the envelope.
// Anything unknown is an opaque 500.
func serviceError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorPayload{
			RequestID: requestIDFromCtx(c),
			Error: errorEnvelope{
				Code:    "VALIDATION_FAILED",
				Message: "some recipients are invalid",
				Fields:  verr.Errors,
			},
		})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			return writeError(c, m.status, m.code, msg)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
