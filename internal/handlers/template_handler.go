package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type TemplateHandler struct {
	BaseHandler
	templateService services.TemplateService
	validator       *validator.Validator
}

func NewTemplateHandler(templateService services.TemplateService, validator *validator.Validator, logger utils.Logger) *TemplateHandler {
	return &TemplateHandler{
		BaseHandler:     NewBaseHandler(logger),
		templateService: templateService,
		validator:       validator,
	}
}

// CreateTemplate uploads a certificate template
// @Summary Create template
// @Description Stores a certificate template file for the admin's university
// @Tags templates
// @Accept multipart/form-data
// @Produce json
// @Param template_name formData string true "Template name"
// @Param file formData file true "Template file"
// @Success 201 {object} services.TemplateResponse
// @Failure 400 {object} ErrorResponse
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	var req validator.TemplateUpsertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing template file",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read template file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	template, err := h.templateService.Create(c.Request.Context(), universityID, &req, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// ListTemplates lists the university's templates
// @Summary List templates
// @Tags templates
// @Produce json
// @Success 200 {array} services.TemplateResponse
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	templates, err := h.templateService.List(c.Request.Context(), universityID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// UpdateTemplate renames a template and optionally replaces its file
// @Summary Update template
// @Description Renames a template; when a file part is present the stored document is replaced
// @Tags templates
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Template ID"
// @Param template_name formData string true "Template name"
// @Param file formData file false "Replacement template file"
// @Success 200 {object} services.TemplateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.TemplateUpsertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	// The file part is optional on update; without it only the name changes.
	var filename string
	var file io.Reader
	if fileHeader, err := c.FormFile("file"); err == nil {
		opened, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Failed to read template file",
				Details: err.Error(),
			})
			return
		}
		defer opened.Close()
		filename = fileHeader.Filename
		file = opened
	}

	template, err := h.templateService.Update(c.Request.Context(), universityID, id, &req, filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template
// @Summary Delete template
// @Tags templates
// @Produce json
// @Param id path uint true "Template ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), universityID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
