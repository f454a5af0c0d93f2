package handler

import (
	"errors"
	"path"

	"github.com/gofiber/fiber/v2"

	"esignapi/internal/http/middleware"
	"esignapi/internal/service"
)

type infoBody struct {
	SharedID string `json:"shared_id"`
	Password string `json:"password"`
}

type downloadBody struct {
	FilePath string `json:"file_path"`
}

func owner(c *fiber.Ctx) service.Owner {
	return service.Owner{ID: middleware.UserID(c), Name: middleware.UserName(c)}
}

// ShareDocument sends an uploaded PDF to a list of recipients.
//
//	@Summary	Share a document
//	@Tags		share
//	@Param		body	body	service.ShareRequest	true	"share request"
//	@Success	201	{object}	envelope{data=service.ShareResult}
//	@Failure	422	{object}	errorPayload
//	@Router		/api/esign/share [post]
func ShareDocument(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.ShareRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		res, err := share.Share(c.UserContext(), owner(c), req)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusCreated, res)
	}
}

// ShareSession shares an editing session with its recipients.
//
//	@Summary	Share an editing session
//	@Tags		share
//	@Param		id	path	string	true	"session id"
//	@Success	201	{object}	envelope{data=service.ShareResult}
//	@Failure	422	{object}	errorPayload
//	@Router		/api/esign/sessions/{id}/share [post]
func ShareSession(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := share.ShareSession(c.UserContext(), owner(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusCreated, res)
	}
}

// ShareInfo is what a recipient's link opens. GET reads shared_id and
// password from the query, POST from the JSON body.
//
//	@Summary	Shared document info
//	@Tags		share
//	@Param		shared_id	query	string	false	"member id"
//	@Success	200	{object}	envelope{data=service.ShareInfo}
//	@Failure	401	{object}	errorPayload
//	@Failure	410	{object}	errorPayload
//	@Router		/api/esign/share/docs/info [get]
//	@Router		/api/esign/share/docs/info [post]
func ShareInfo(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := infoBody{SharedID: c.Query("shared_id"), Password: c.Query("password")}
		if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return badBody(c)
			}
			if body.SharedID == "" {
				body.SharedID = c.Query("shared_id")
			}
		}
		info, err := share.Info(c.UserContext(), body.SharedID, body.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, info)
	}
}

// DownloadShared streams a shared or signed PDF by storage path.
//
//	@Summary	Download a shared document
//	@Tags		share
//	@Produce	application/pdf
//	@Param		body	body	downloadBody	true	"file path"
//	@Router		/api/esign/docs/download [post]
func DownloadShared(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body downloadBody
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		rc, info, err := share.Download(c.UserContext(), body.FilePath)
		if err != nil {
			return serviceError(c, err)
		}
		return sendPDF(c, rc, baseName(body.FilePath), info.Size)
	}
}

// UploadSigned records a recipient's signed copy. A second upload answers
// 200 with status "warning" and keeps the first copy.
//
//	@Summary	Upload a signed copy
//	@Tags		share
//	@Accept		multipart/form-data
//	@Param		pdf-file	formData	file	true	"signed PDF"
//	@Param		file_id		formData	string	true	"member id"
//	@Success	200	{object}	envelope{data=service.SignedUpload}
//	@Failure	409	{object}	errorPayload
//	@Failure	410	{object}	errorPayload
//	@Router		/api/esign/upload/signed [post]
func UploadSigned(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.FormValue("file_id")
		if memberID == "" {
			return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "file_id is required")
		}
		fh, err := c.FormFile(FormFilePDF)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "a pdf file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := share.UploadSigned(c.UserContext(), memberID, f)
		if errors.Is(err, service.ErrAlreadySigned) {
			return warning(c, "you have already signed this document", res)
		}
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, res)
	}
}

// OwnerDocs pages through the caller's shared documents.
//
//	@Summary	List shared documents
//	@Tags		share
//	@Param		limit	query	int	false	"page size"	default(10)
//	@Param		offset	query	int	false	"offset"	default(0)
//	@Router		/api/esign/owner-docs/list [get]
func OwnerDocs(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := parsePage(c)
		if bad != "" {
			return invalidPage(c, bad)
		}
		res, err := share.OwnerDocs(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, res)
	}
}

// OwnerDocInfo shows every recipient's progress on one shared document.
//
//	@Summary	Shared document progress
//	@Tags		share
//	@Param		file_id	query	string	true	"shared document id"
//	@Success	200	{object}	envelope{data=service.OwnerDocInfo}
//	@Router		/api/esign/owner-docs/file-info [get]
func OwnerDocInfo(share service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := share.OwnerDocInfo(c.UserContext(), middleware.UserID(c), c.Query("file_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusOK, info)
	}
}

func baseName(p string) string {
	if b := path.Base(p); b != "." && b != "/" {
		return b
	}
	return "document.pdf"
}
