package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"esignapi/internal/http/middleware"
	"esignapi/internal/model"
	"esignapi/internal/service"
)

// FormFilePDF is the multipart field carrying a PDF upload.
const FormFilePDF = "pdf-file"

// UploadResponse is returned after a PDF upload opens an editing session.
type UploadResponse struct {
	FilePath  string `json:"file_path"`
	FileName  string `json:"file_name"`
	SessionID string `json:"session_id"`
	NumPages  int    `json:"num_pages"`
}

// UploadDocument stores a PDF and opens an editing session on it.
//
//	@Summary	Upload a PDF to sign
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Param		pdf-file	formData	file	true	"PDF document"
//	@Success	201	{object}	envelope{data=UploadResponse}
//	@Failure	400	{object}	errorPayload
//	@Router		/api/esign/upload [post]
func UploadDocument(docs service.DocumentService, sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(FormFilePDF)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "a pdf file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		owner := middleware.UserID(c)
		doc, err := docs.Upload(c.UserContext(), owner, f, fh.Filename)
		if err != nil {
			return serviceError(c, err)
		}
		sess, err := sessions.Create(c.UserContext(), owner, doc.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return success(c, fiber.StatusCreated, UploadResponse{
			FilePath:  doc.StoragePath,
			FileName:  doc.Filename,
			SessionID: sess.ID,
			NumPages:  doc.NumPages,
		})
	}
}

// ListDocuments pages through the caller's uploads.
//
//	@Summary	List uploaded documents
//	@Tags		documents
//	@Param		limit	query	int	false	"page size"	default(10)
//	@Param		offset	query	int	false	"offset"	default(0)
//	@Success	200	{object}	service.DocumentListResult
//	@Router		/api/esign/documents [get]
func ListDocuments(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := parsePage(c)
		if bad != "" {
			return invalidPage(c, bad)
		}
		res, err := docs.List(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// ownedDocument loads a document by the :id param, hiding other owners'
// documents as missing.
func ownedDocument(c *fiber.Ctx, docs service.DocumentService) (*model.Document, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, errInvalidID
	}
	doc, err := docs.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != middleware.UserID(c) {
		return nil, service.ErrNotFound
	}
	return doc, nil
}

var errInvalidID = errors.New("invalid id format")

func documentError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidID) {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return serviceError(c, err)
}

// GetDocument returns one upload's metadata.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Param		id	path	string	true	"document id"
//	@Success	200	{object}	model.Document
//	@Failure	404	{object}	errorPayload
//	@Router		/api/esign/documents/{id} [get]
func GetDocument(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := ownedDocument(c, docs)
		if err != nil {
			return documentError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the original PDF.
//
//	@Summary	Download a document
//	@Tags		documents
//	@Produce	application/pdf
//	@Param		id	path	string	true	"document id"
//	@Router		/api/esign/documents/{id}/file [get]
func DownloadDocument(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := ownedDocument(c, docs)
		if err != nil {
			return documentError(c, err)
		}
		rc, _, err := docs.Open(c.UserContext(), doc.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return sendPDF(c, rc, doc.Filename, doc.Size)
	}
}

// DeleteDocument removes an upload from storage and the database.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Param		id	path	string	true	"document id"
//	@Success	204
//	@Router		/api/esign/documents/{id} [delete]
func DeleteDocument(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := ownedDocument(c, docs)
		if err != nil {
			return documentError(c, err)
		}
		if err := docs.Delete(c.UserContext(), doc.ID); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// sendPDF streams rc as an attachment. fiber closes rc once written; a
// non-positive size streams with chunked encoding.
func sendPDF(c *fiber.Ctx, rc io.ReadCloser, filename string, size int64) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, service.ContentTypePDF)
	if size <= 0 {
		size = -1
	}
	return c.SendStream(rc, int(size))
}
