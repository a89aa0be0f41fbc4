package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

const maxRosterSize = 10 << 20 // 10 MiB

type DegreeHandler struct {
	BaseHandler
	degreeService services.DegreeService
	ingestService services.IngestService
	validator     *validator.Validator
}

func NewDegreeHandler(
	degreeService services.DegreeService,
	ingestService services.IngestService,
	validator *validator.Validator,
	logger utils.Logger,
) *DegreeHandler {
	return &DegreeHandler{
		BaseHandler:   NewBaseHandler(logger),
		degreeService: degreeService,
		ingestService: ingestService,
		validator:     validator,
	}
}

// CreateDegree uploads a single degree record
// @Summary Create degree
// @Description Creates a single draft degree record for the admin's university
// @Tags degrees
// @Accept json
// @Produce json
// @Param degree body validator.DegreeCreateRequest true "Degree data"
// @Success 201 {object} services.DegreeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /degrees [post]
func (h *DegreeHandler) CreateDegree(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	var req validator.DegreeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	degree, err := h.degreeService.Upload(c.Request.Context(), universityID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, degree)
}

// BulkUpload ingests a roster file of degree records
// @Summary Bulk upload degrees
// @Description Parses a CSV or XLSX roster and stages all rows as drafts; any row error rejects the whole file
// @Tags degrees
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster file (.csv or .xlsx)"
// @Success 201 {object} services.BulkUploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /degrees/bulk [post]
func (h *DegreeHandler) BulkUpload(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing roster file",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxRosterSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Roster file too large",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read roster file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Bulk uploading degrees", "university_id", universityID, "filename", fileHeader.Filename)

	result, err := h.ingestService.BulkUpload(c.Request.Context(), universityID, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// AttachCredential uploads the credential document for a draft record
// @Summary Attach credential file
// @Description Stores the credential document for a draft degree record, replacing any earlier attachment
// @Tags degrees
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Degree ID"
// @Param file formData file true "Credential document"
// @Success 200 {object} services.DegreeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /degrees/{id}/file [post]
func (h *DegreeHandler) AttachCredential(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing credential file",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read credential file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	degree, err := h.degreeService.AttachCredential(c.Request.Context(), universityID, id, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, degree)
}

// ListDegrees lists the admin's university degree records
// @Summary List degrees
// @Description Lists degree records for the admin's university with filtering and pagination
// @Tags degrees
// @Produce json
// @Param status query string false "Filter by status"
// @Param major query string false "Filter by major substring"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.DegreeListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /degrees [get]
func (h *DegreeHandler) ListDegrees(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	result, err := h.degreeService.List(c.Request.Context(), universityID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDegree retrieves one degree record
// @Summary Get degree
// @Description Retrieves a degree record owned by the admin's university
// @Tags degrees
// @Produce json
// @Param id path uint true "Degree ID"
// @Success 200 {object} services.DegreeResponse
// @Failure 404 {object} ErrorResponse
// @Router /degrees/{id} [get]
func (h *DegreeHandler) GetDegree(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	degree, err := h.degreeService.GetByID(c.Request.Context(), universityID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, degree)
}

// UpdateDegree edits a draft degree record
// @Summary Update draft degree
// @Description Updates fields of a draft record; non-draft records are immutable
// @Tags degrees
// @Accept json
// @Produce json
// @Param id path uint true "Degree ID"
// @Param degree body validator.DegreeUpdateRequest true "Fields to update"
// @Success 200 {object} services.DegreeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /degrees/{id} [put]
func (h *DegreeHandler) UpdateDegree(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.DegreeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	degree, err := h.degreeService.UpdateDraft(c.Request.Context(), universityID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, degree)
}

// DeleteDegree removes a draft degree record
// @Summary Delete draft degree
// @Description Deletes a draft record; non-draft records cannot be deleted
// @Tags degrees
// @Produce json
// @Param id path uint true "Degree ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /degrees/{id} [delete]
func (h *DegreeHandler) DeleteDegree(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.degreeService.DeleteDraft(c.Request.Context(), universityID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmDegrees advances a batch through one confirmation step
// @Summary Confirm degree batch
// @Description Step 1 moves drafts to pending_confirmation, step 2 moves pending records to submitted; mixed-status batches are rejected in full
// @Tags degrees
// @Accept json
// @Produce json
// @Param request body validator.ConfirmDegreesRequest true "Degree ids and step"
// @Success 200 {object} services.BatchStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /degrees/confirm [post]
func (h *DegreeHandler) ConfirmDegrees(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	var req validator.ConfirmDegreesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.degreeService.ConfirmBatch(c.Request.Context(), universityID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RevertDegrees cancels a first-step acknowledgment for a batch
// @Summary Revert degree batch
// @Description Returns pending_confirmation records to draft
// @Tags degrees
// @Accept json
// @Produce json
// @Param request body validator.RevertDegreesRequest true "Degree ids"
// @Success 200 {object} services.BatchStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /degrees/revert [post]
func (h *DegreeHandler) RevertDegrees(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	var req validator.RevertDegreesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.degreeService.RevertBatch(c.Request.Context(), universityID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportDegrees downloads the university's degree records as a workbook
// @Summary Export degrees
// @Description Streams the filtered degree records as an xlsx workbook
// @Tags degrees
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /degrees/export [get]
func (h *DegreeHandler) ExportDegrees(c *gin.Context) {
	universityID, ok := h.universityID(c)
	if !ok {
		return
	}

	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	buf, err := h.degreeService.ExportRoster(c.Request.Context(), universityID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="degrees.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *DegreeHandler) parseFilters(c *gin.Context) (repositories.DegreeFilters, bool) {
	filters := repositories.DegreeFilters{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     20,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.DegreeStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid status filter",
			})
			return filters, false
		}
		filters.Status = &status
	}
	if major := c.Query("major"); major != "" {
		filters.Major = &major
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = &t
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			filters.Limit = n
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	return filters, true
}
