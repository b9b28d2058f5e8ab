package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tensorcode/backend/internal/compute"
	"go.uber.org/zap"
)

const (
	consumeOutcomeOK       = "ok"
	consumeOutcomeExceeded = "limit_exceeded"
	consumeOutcomeFailed   = "error"
)

type computeRequestPayload struct {
	Email string `json:"email"`
}

type computeUpdatePayload struct {
	Email        string `json:"email"`
	ComputeCount *int   `json:"compute_count"`
	CustomerType string `json:"customer_type"`
}

type computeResponsePayload struct {
	Email          string     `json:"email"`
	ComputeCount   int        `json:"compute_count"`
	CustomerType   string     `json:"customer_type"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
}

type deleteUserPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newComputeResponse(user compute.User) computeResponsePayload {
	return computeResponsePayload{
		Email:          user.Email,
		ComputeCount:   user.ComputeCount,
		CustomerType:   string(user.CustomerType),
		EnrollmentDate: user.EnrollmentDate,
	}
}

func (h *httpHandler) registerCompute(group *gin.RouterGroup) {
	group.GET("/:email", h.handleGetCompute)
	group.POST("", h.handleConsumeCompute)
	group.PUT("", h.handleSetCompute)
	group.DELETE("/:email", h.handleDeleteUser)
}

func (h *httpHandler) handleGetCompute(c *gin.Context) {
	user, err := h.compute.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.computeFailure(c, err, "Failed to fetch compute count")
		return
	}
	c.JSON(http.StatusOK, newComputeResponse(user))
}

func (h *httpHandler) handleConsumeCompute(c *gin.Context) {
	var request computeRequestPayload
	if err := bindJSON(c, &request); err != nil {
		h.recordConsume(consumeOutcomeFailed)
		h.computeFailure(c, err, "Failed to increment compute count")
		return
	}

	user, err := h.compute.Consume(c.Request.Context(), request.Email)
	switch {
	case errors.Is(err, compute.ErrLimitExceeded):
		h.recordConsume(consumeOutcomeExceeded)
	case err != nil:
		h.recordConsume(consumeOutcomeFailed)
	default:
		h.recordConsume(consumeOutcomeOK)
	}
	if err != nil {
		h.computeFailure(c, err, "Failed to increment compute count")
		return
	}
	c.JSON(http.StatusOK, newComputeResponse(user))
}

func (h *httpHandler) handleSetCompute(c *gin.Context) {
	var request computeUpdatePayload
	if err := bindJSON(c, &request); err != nil {
		h.computeFailure(c, err, "Failed to update compute count")
		return
	}

	user, err := h.compute.SetState(c.Request.Context(), compute.StateChange{
		Email:        request.Email,
		ComputeCount: request.ComputeCount,
		CustomerType: compute.CustomerType(request.CustomerType),
	})
	if err != nil {
		h.computeFailure(c, err, "Failed to update compute count")
		return
	}
	c.JSON(http.StatusOK, newComputeResponse(user))
}

func (h *httpHandler) handleDeleteUser(c *gin.Context) {
	email := c.Param("email")
	if err := h.compute.Delete(c.Request.Context(), email); err != nil {
		h.computeFailure(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, deleteUserPayload{
		Success: true,
		Message: "User " + email + " has been deleted successfully",
	})
}

// computeFailure maps ledger errors to their fixed client messages. Storage
// failures are reported as internal errors with internalMessage.
func (h *httpHandler) computeFailure(c *gin.Context, err error, internalMessage string) {
	var payload errorPayload
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, compute.ErrInvalidEmail):
		payload = errorPayload{Error: "Invalid email", Message: "Please provide a valid email address"}
	case errors.Is(err, compute.ErrInvalidComputeCount):
		payload = errorPayload{Error: "Invalid compute count", Message: "compute_count must be a non-negative number"}
	case errors.Is(err, compute.ErrInvalidCustomerType):
		payload = errorPayload{Error: "Invalid customer type", Message: `customer_type must be either "free" or "paid"`}
	case errors.Is(err, compute.ErrFreeLimit):
		payload = errorPayload{Error: "Invalid compute count", Message: "Free customers cannot have more than 100 compute count"}
	case errors.Is(err, compute.ErrPaidLimit):
		payload = errorPayload{Error: "Invalid compute count", Message: "Paid customers cannot have more than 10000 compute count"}
	case errors.Is(err, compute.ErrUserNotFound):
		status = http.StatusNotFound
		payload = errorPayload{Error: "User not found", Message: "No user found with this email address"}
	case errors.Is(err, compute.ErrLimitExceeded):
		status = http.StatusForbidden
		payload = errorPayload{Error: "Limit exceeded", Message: "You don't have enough poridhi-compute"}
	default:
		status = http.StatusInternalServerError
		payload = errorPayload{Error: "Internal server error", Message: internalMessage}
		h.logger.Error("compute request failed",
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, payload)
}

func (h *httpHandler) recordConsume(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordConsume(outcome)
	}
}
