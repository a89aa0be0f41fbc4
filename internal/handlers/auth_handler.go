package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	accountService services.AccountService
	validator      *validator.Validator
}

func NewAuthHandler(accountService services.AccountService, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:    NewBaseHandler(logger),
		accountService: accountService,
		validator:      validator,
	}
}

// RegisterStudent creates a student account
// @Summary Register student
// @Description Registers a student whose email matches their university's domain and sends a verification link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RegisterStudentRequest true "Registration data"
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req validator.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.accountService.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ConfirmEmail verifies an account and runs deferred degree linking
// @Summary Confirm email
// @Description Consumes a verification token, marks the account verified and links any waiting submitted degree
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} services.ConfirmEmailResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing token parameter",
		})
		return
	}

	result, err := h.accountService.ConfirmEmail(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterAdmin redeems an invitation token into an admin account
// @Summary Register university admin
// @Description Creates a university admin account from a valid invitation token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RegisterUniversityAdminRequest true "Token and password"
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register-admin [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req validator.RegisterUniversityAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.accountService.RegisterUniversityAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login authenticates any account role
// @Summary Login
// @Description Exchanges credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Credentials"
// @Success 200 {object} services.LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req validator.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.accountService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
