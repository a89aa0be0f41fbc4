package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

// BaseHandler carries shared plumbing for all handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when available.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// parseIDParam extracts a positive integer path parameter. On failure it
// writes the error response and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// universityID returns the authenticated admin's university scope.
func (h *BaseHandler) universityID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("university_id")
	if !exists {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "No university scope on this account",
		})
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "No university scope on this account",
		})
		return 0, false
	}
	return id, true
}

// currentUserID returns the authenticated account id.
func (h *BaseHandler) currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Errors:  validationErrs,
		})
		return
	}

	var batchErr *services.BatchValidationError
	if errors.As(err, &batchErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Batch rejected",
			Rows:    batchErr.Rows,
		})
		return
	}

	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case services.IsStateConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case services.IsDomainMismatch(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrEmailInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrTokenInvalid),
		errors.Is(err, services.ErrEmptyBatch),
		errors.Is(err, services.ErrInvalidConfirmationStep):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// hasRole reports whether the authenticated account holds one of the roles.
func hasRole(c *gin.Context, roles ...models.UserRole) bool {
	value, exists := c.Get("role")
	if !exists {
		return false
	}
	current, ok := value.(models.UserRole)
	if !ok {
		return false
	}
	for _, role := range roles {
		if current == role {
			return true
		}
	}
	return false
}
