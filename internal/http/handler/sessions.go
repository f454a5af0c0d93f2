package handler

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"esignapi/internal/editor"
	"esignapi/internal/http/middleware"
	"esignapi/internal/model"
	"esignapi/internal/service"
)

// FormFieldAuthor is the multipart field holding the JSON authoring input
// when image files are attached.
const FormFieldAuthor = "data"

// authorBody is the JSON authoring input. Strokes replace drawnSignature
// when the client sends raw pointer paths instead of a raster.
type authorBody struct {
	editor.AuthorInput
	Strokes []editor.Stroke `json:"strokes,omitempty"`
}

// PlacementResponse pairs the saved session with the placement an operation
// touched.
type PlacementResponse struct {
	Session   *model.EditorSession `json:"session"`
	Placement *editor.Placement    `json:"placement"`
}

// AuthorResponse pairs the saved session with the signatures just authored.
type AuthorResponse struct {
	Session    *model.EditorSession `json:"session"`
	Signatures []editor.Signature   `json:"signatures"`
}

type addPlacementBody struct {
	SignatureID string `json:"signatureId"`
	Page        int    `json:"page"`
}

type freeTextBody struct {
	Page int `json:"page"`
}

type assignBody struct {
	Email string `json:"email"`
}

func badBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
}

// GetSession returns the editing state.
//
//	@Summary	Get an editing session
//	@Tags		sessions
//	@Param		id	path	string	true	"session id"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Failure	404	{object}	errorPayload
//	@Router		/api/esign/sessions/{id} [get]
func GetSession(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// DeleteSession discards a session and its uploaded images.
//
//	@Summary	Delete an editing session
//	@Tags		sessions
//	@Param		id	path	string	true	"session id"
//	@Success	204
//	@Router		/api/esign/sessions/{id} [delete]
func DeleteSession(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sessions.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ClearSession drops every signature, placement and recipient.
//
//	@Summary	Reset an editing session
//	@Tags		sessions
//	@Param		id	path	string	true	"session id"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Router		/api/esign/sessions/{id}/clear [post]
func ClearSession(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Clear(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// AuthorSignatures turns one authoring form submit into signature templates.
// The body is either JSON or multipart with the JSON under "data" and image
// files under "uploadedSign" and "image".
//
//	@Summary	Author signatures
//	@Tags		sessions
//	@Accept		json,multipart/form-data
//	@Param		id	path	string	true	"session id"
//	@Success	201	{object}	envelope{data=AuthorResponse}
//	@Router		/api/esign/sessions/{id}/signatures [post]
func AuthorSignatures(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, closeAll, err := parseAuthor(c)
		if err != nil {
			return badBody(c)
		}
		defer closeAll()

		sess, sigs, err := sessions.AuthorSignatures(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return serviceError(c, err)
		}
		if sigs == nil {
			sigs = []editor.Signature{}
		}
		return success(c, fiber.StatusCreated, AuthorResponse{Session: sess, Signatures: sigs})
	}
}

// EditSignature re-authors one signature template in place.
//
//	@Summary	Edit a signature
//	@Tags		sessions
//	@Param		id		path	string	true	"session id"
//	@Param		sigID	path	string	true	"signature id"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Router		/api/esign/sessions/{id}/signatures/{sigID} [put]
func EditSignature(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, closeAll, err := parseAuthor(c)
		if err != nil {
			return badBody(c)
		}
		defer closeAll()

		sess, err := sessions.EditSignature(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("sigID"), req)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// RemoveSignature deletes a signature template with its placements.
//
//	@Summary	Remove a signature
//	@Tags		sessions
//	@Param		id		path	string	true	"session id"
//	@Param		sigID	path	string	true	"signature id"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Router		/api/esign/sessions/{id}/signatures/{sigID} [delete]
func RemoveSignature(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.RemoveSignature(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("sigID"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// AddPlacement drops a copy of a signature on a page.
//
//	@Summary	Place a signature
//	@Tags		placements
//	@Param		id		path	string				true	"session id"
//	@Param		body	body	addPlacementBody	true	"signature and page"
//	@Success	201	{object}	envelope{data=PlacementResponse}
//	@Router		/api/esign/sessions/{id}/placements [post]
func AddPlacement(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body addPlacementBody
		if err := c.BodyParser(&body); err != nil || body.SignatureID == "" {
			return badBody(c)
		}
		sess, pl, err := sessions.AddPlacement(c.UserContext(), middleware.UserID(c), c.Params("id"), body.SignatureID, body.Page)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusCreated, PlacementResponse{Session: sess, Placement: pl})
	}
}

// AddFreeText drops an empty, editable text box on a page.
//
//	@Summary	Add a free text box
//	@Tags		placements
//	@Param		id		path	string			true	"session id"
//	@Param		body	body	freeTextBody	true	"page"
//	@Success	201	{object}	envelope{data=PlacementResponse}
//	@Router		/api/esign/sessions/{id}/free-text [post]
func AddFreeText(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body freeTextBody
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		sess, pl, err := sessions.AddFreeText(c.UserContext(), middleware.UserID(c), c.Params("id"), body.Page)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusCreated, PlacementResponse{Session: sess, Placement: pl})
	}
}

// UpdatePlacement moves, resizes or restyles a placement.
//
//	@Summary	Update a placement
//	@Tags		placements
//	@Param		id		path	string					true	"session id"
//	@Param		pid		path	string					true	"placement id"
//	@Param		body	body	editor.PlacementPatch	true	"fields to change"
//	@Success	200	{object}	envelope{data=PlacementResponse}
//	@Router		/api/esign/sessions/{id}/placements/{pid} [patch]
func UpdatePlacement(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch editor.PlacementPatch
		if err := c.BodyParser(&patch); err != nil {
			return badBody(c)
		}
		sess, pl, err := sessions.UpdatePlacement(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("pid"), patch)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, PlacementResponse{Session: sess, Placement: pl})
	}
}

// RemovePlacement deletes one placement.
//
//	@Summary	Remove a placement
//	@Tags		placements
//	@Param		id	path	string	true	"session id"
//	@Param		pid	path	string	true	"placement id"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Router		/api/esign/sessions/{id}/placements/{pid} [delete]
func RemovePlacement(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.RemovePlacement(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("pid"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// AssignPlacement binds a placement to a signer by email.
//
//	@Summary	Assign a placement
//	@Tags		placements
//	@Param		id		path	string		true	"session id"
//	@Param		pid		path	string		true	"placement id"
//	@Param		body	body	assignBody	true	"signer email"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Router		/api/esign/sessions/{id}/placements/{pid}/assign [post]
func AssignPlacement(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body assignBody
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		sess, err := sessions.AssignPlacement(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("pid"), strings.TrimSpace(body.Email))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// SetRecipients submits the share form of a session.
//
//	@Summary	Set recipients and share settings
//	@Tags		sessions
//	@Param		id		path	string						true	"session id"
//	@Param		body	body	service.RecipientsRequest	true	"share form"
//	@Success	200	{object}	envelope{data=model.EditorSession}
//	@Failure	422	{object}	errorPayload
//	@Router		/api/esign/sessions/{id}/recipients [put]
func SetRecipients(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.RecipientsRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		sess, err := sessions.SetRecipients(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, sess)
	}
}

// parseAuthor reads an authoring request from a JSON or multipart body. The
// returned func closes any opened upload.
func parseAuthor(c *fiber.Ctx) (service.AuthorRequest, func(), error) {
	noop := func() {}
	var body authorBody

	form, err := c.MultipartForm()
	if err != nil {
		// Not multipart.
		if err := c.BodyParser(&body); err != nil {
			return service.AuthorRequest{}, noop, err
		}
		return service.AuthorRequest{Input: body.AuthorInput, Strokes: body.Strokes}, noop, nil
	}

	if raw := formValue(form, FormFieldAuthor); raw != "" {
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return service.AuthorRequest{}, noop, err
		}
	}
	req := service.AuthorRequest{Input: body.AuthorInput, Strokes: body.Strokes}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, slot := range []string{service.SlotUploadedSign, service.SlotImage} {
		files := form.File[slot]
		if len(files) == 0 {
			continue
		}
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return service.AuthorRequest{}, noop, err
		}
		opened = append(opened, f)
		req.Uploads = append(req.Uploads, service.ImageUpload{
			Slot:     slot,
			FileName: fh.Filename,
			Size:     fh.Size,
			Body:     f,
		})
	}
	return req, closeAll, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
