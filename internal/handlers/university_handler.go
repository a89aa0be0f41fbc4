package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type UniversityHandler struct {
	BaseHandler
	universityService services.UniversityService
	validator         *validator.Validator
}

func NewUniversityHandler(universityService services.UniversityService, validator *validator.Validator, logger utils.Logger) *UniversityHandler {
	return &UniversityHandler{
		BaseHandler:       NewBaseHandler(logger),
		universityService: universityService,
		validator:         validator,
	}
}

// RegisterUniversity onboards a university
// @Summary Register university
// @Description Creates a verified university with its canonical email domain (platform admin only)
// @Tags universities
// @Accept json
// @Produce json
// @Param request body validator.RegisterUniversityRequest true "University data"
// @Success 201 {object} services.UniversityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /universities [post]
func (h *UniversityHandler) RegisterUniversity(c *gin.Context) {
	var req validator.RegisterUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	university, err := h.universityService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, university)
}

// ListUniversities lists verified universities
// @Summary List universities
// @Description Lists verified universities with their admin accounts
// @Tags universities
// @Produce json
// @Success 200 {array} services.UniversityResponse
// @Router /universities [get]
func (h *UniversityHandler) ListUniversities(c *gin.Context) {
	universities, err := h.universityService.ListVerified(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, universities)
}

// GetUniversity retrieves one university
// @Summary Get university
// @Tags universities
// @Produce json
// @Param id path uint true "University ID"
// @Success 200 {object} services.UniversityResponse
// @Failure 404 {object} ErrorResponse
// @Router /universities/{id} [get]
func (h *UniversityHandler) GetUniversity(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	university, err := h.universityService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, university)
}

// InviteAdmin issues an admin invitation for a university
// @Summary Invite university admin
// @Description Emails a time-boxed invitation token to the prospective admin (platform admin only)
// @Tags universities
// @Accept json
// @Produce json
// @Param request body validator.InviteUniversityAdminRequest true "Invitation data"
// @Success 202 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /universities/invite [post]
func (h *UniversityHandler) InviteAdmin(c *gin.Context) {
	var req validator.InviteUniversityAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.universityService.InviteAdmin(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Invitation sent"})
}
