package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	statusSuccess = "success"
	statusWarning = "warning"
)

// envelope is the body of every successful response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(envelope{Status: statusSuccess, Data: data})
}

// warning answers 200 for requests that changed nothing but are not errors,
// such as uploading a signature twice.
func warning(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Status: statusWarning, Message: message, Data: data})
}

// parsePage reads the limit and offset query params; the service clamps
// them. bad names the first param that is not a number.
func parsePage(c *fiber.Ctx) (limit, offset int, bad string) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, "limit"
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, "offset"
	}
	return limit, offset, ""
}

func invalidPage(c *fiber.Ctx, bad string) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_"+strings.ToUpper(bad), "invalid "+bad)
}
