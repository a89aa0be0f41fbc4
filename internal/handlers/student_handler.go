package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	linkingService services.LinkingService
	userRepo       repositories.UserRepository
}

func NewStudentHandler(linkingService services.LinkingService, userRepo repositories.UserRepository, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		linkingService: linkingService,
		userRepo:       userRepo,
	}
}

// GetClaimableDegrees lists submitted degrees waiting for this student
// @Summary List claimable degrees
// @Description Lists submitted, unlinked degrees matching the student's verified email
// @Tags students
// @Produce json
// @Success 200 {array} services.DegreeResponse
// @Failure 401 {object} ErrorResponse
// @Router /students/me/claimable [get]
func (h *StudentHandler) GetClaimableDegrees(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), nil, userID)
	if err != nil {
		h.handleServiceError(c, services.ErrUserNotFound)
		return
	}

	degrees, err := h.linkingService.ListClaimable(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, degrees)
}

// GetMyDegrees lists degrees linked to this student's account
// @Summary List linked degrees
// @Tags students
// @Produce json
// @Success 200 {array} services.DegreeResponse
// @Failure 401 {object} ErrorResponse
// @Router /students/me/degrees [get]
func (h *StudentHandler) GetMyDegrees(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	degrees, err := h.linkingService.ListLinked(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, degrees)
}
