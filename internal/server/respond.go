package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tensorcode/backend/internal/catalog"
	"github.com/tensorcode/backend/internal/roadmaps"
	"github.com/tensorcode/backend/internal/serviceerr"
	"go.uber.org/zap"
)

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// respond writes result with status, or converts err using title and a 500 fallback.
func (h *httpHandler) respond(c *gin.Context, status int, title string, result any, err error) {
	if err != nil {
		h.fail(c, title, http.StatusInternalServerError, err)
		return
	}
	c.JSON(status, result)
}

// respondCreated writes result with 201, or converts err using title and a 400 fallback.
func (h *httpHandler) respondCreated(c *gin.Context, title string, result any, err error) {
	if err != nil {
		h.fail(c, title, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// fail writes the error envelope. Known failure kinds pick their own status;
// anything else uses fallback.
func (h *httpHandler) fail(c *gin.Context, title string, fallback int, err error) {
	status := statusFor(err, fallback)
	payload := errorPayload{Error: title, Message: err.Error()}

	var missing *roadmaps.NotFoundError
	switch {
	case errors.As(err, &missing):
		payload = errorPayload{Error: capitalize(missing.Entity) + " not found", Message: capitalize(missing.Error())}
	case errors.Is(err, catalog.ErrNotFound):
		payload = errorPayload{Error: "Not found", Message: "Resource not found"}
	case errors.Is(err, serviceerr.ErrValidation):
		payload.Message = detail(err)
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.String("route", c.FullPath()),
			zap.String("code", serviceerr.Code(err)),
			zap.Error(err))
	}
	c.JSON(status, payload)
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, serviceerr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, serviceerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, serviceerr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, serviceerr.ErrQuotaExceeded):
		return http.StatusForbidden
	default:
		return fallback
	}
}

// detail drops the package and kind prefixes of a wrapped sentinel message.
func detail(err error) string {
	message := err.Error()
	if index := strings.LastIndex(message, ": "); index >= 0 {
		return message[index+2:]
	}
	return message
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// bindJSON decodes the request body into target.
func bindJSON(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return err
	}
	return nil
}
