package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"esignapi/internal/http/middleware"
	"esignapi/internal/service"
)

// HeaderSignedKey carries the storage key of the signed copy.
const HeaderSignedKey = "X-Signed-Key"

// SignSession stamps every placement onto the PDF and returns the signed
// file. The caller's bearer token is forwarded for usage tracking.
//
//	@Summary	Sign the document
//	@Tags		sessions
//	@Produce	application/pdf
//	@Param		id	path	string	true	"session id"
//	@Success	200	{file}	binary
//	@Failure	401	{object}	errorPayload
//	@Failure	403	{object}	errorPayload
//	@Failure	502	{object}	errorPayload
//	@Router		/api/esign/sessions/{id}/sign [post]
func SignSession(signing service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := signing.Sign(c.UserContext(), middleware.UserID(c), middleware.Token(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		c.Attachment(res.FileName)
		c.Set(fiber.HeaderContentType, service.ContentTypePDF)
		c.Set(fiber.HeaderContentLength, strconv.Itoa(len(res.Data)))
		c.Set(HeaderSignedKey, res.Key)
		return c.Send(res.Data)
	}
}
