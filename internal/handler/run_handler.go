package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finrecon/internal/domain"
	"finrecon/internal/port"
	"finrecon/internal/service"
)

// RunHandler handles reconciliation run endpoints.
type RunHandler struct {
	reconService service.ReconService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(reconService service.ReconService) *RunHandler {
	return &RunHandler{reconService: reconService}
}

// validOverrideCategories defines the categories a manual override may set.
var validOverrideCategories = map[domain.ClassificationCategory]bool{
	domain.CategoryRecoverable:      true,
	domain.CategoryIrrecoverable:    true,
	domain.CategoryPendingVendor:    true,
	domain.CategoryDataEntryError:   true,
	domain.CategoryTimingDifference: true,
	domain.CategoryUnderReview:      true,
	domain.CategoryWrittenOff:       true,
}

// parseRunID extracts the run UUID from the path.
// Returns false if invalid (error response already written).
func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid run id: must be a valid UUID")
		return uuid.Nil, false
	}
	return runID, true
}

// parsePagination extracts offset and limit query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, limit = 0, 20
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid 'offset': must be an integer")
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid 'limit': must be an integer")
		}
	}
	return offset, limit, nil
}

// CreateRunInput is the request body for creating a run.
type CreateRunInput struct {
	ClientID     string `json:"client_id" binding:"required"`
	GSTIN        string `json:"gstin" binding:"required"`
	ReturnPeriod string `json:"return_period" binding:"required"`
}

// Create handles POST /api/v1/runs
func (h *RunHandler) Create(c *gin.Context) {
	var input CreateRunInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	run, err := h.reconService.CreateRun(c.Request.Context(), input.ClientID, input.GSTIN, input.ReturnPeriod)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, run)
}

// UploadInvoicesInput is the request body for uploading a side's invoices.
type UploadInvoicesInput struct {
	Source   domain.InvoiceSource `json:"source" binding:"required"`
	Invoices []domain.Invoice     `json:"invoices" binding:"required"`
}

// UploadInvoices handles POST /api/v1/runs/:id/invoices
func (h *RunHandler) UploadInvoices(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	var input UploadInvoicesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	report, err := h.reconService.AddInvoices(c.Request.Context(), runID, input.Source, input.Invoices)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}

// Enqueue handles POST /api/v1/runs/:id/enqueue
func (h *RunHandler) Enqueue(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	if err := h.reconService.Enqueue(c.Request.Context(), runID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"status": string(domain.RunStatusQueued)})
}

// GetByID handles GET /api/v1/runs/:id
func (h *RunHandler) GetByID(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	run, err := h.reconService.GetRun(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, run)
}

// List handles GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "client_id query parameter is required")
		return
	}

	offset, limit, err := parsePagination(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	runs, total, err := h.reconService.ListRuns(c.Request.Context(), clientID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Results handles GET /api/v1/runs/:id/results
func (h *RunHandler) Results(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	offset, limit, err := parsePagination(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	filter := port.ResultFilter{
		Status:   domain.MatchStatus(c.Query("status")),
		Category: domain.ClassificationCategory(c.Query("category")),
		Offset:   offset,
		Limit:    limit,
	}

	results, total, err := h.reconService.GetResults(c.Request.Context(), runID, filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, results, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Summary handles GET /api/v1/runs/:id/summary
func (h *RunHandler) Summary(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	summary, err := h.reconService.GetSummary(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, summary)
}

// OverrideInput is the request body for a manual classification override.
type OverrideInput struct {
	Category domain.ClassificationCategory `json:"category" binding:"required"`
	Reason   string                        `json:"reason" binding:"required"`
}

// Override handles PUT /api/v1/runs/:id/classifications/:classificationID
func (h *RunHandler) Override(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	classificationID, err := uuid.Parse(c.Param("classificationID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid classification id: must be a valid UUID")
		return
	}

	var input OverrideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !validOverrideCategories[input.Category] {
		RespondError(c, http.StatusBadRequest, "INVALID_CATEGORY", "unknown classification category")
		return
	}

	if err := h.reconService.OverrideClassification(c.Request.Context(), runID, classificationID, input.Category, input.Reason); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"category": string(input.Category)})
}

// Delete handles DELETE /api/v1/runs/:id
func (h *RunHandler) Delete(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	if err := h.reconService.DeleteRun(c.Request.Context(), runID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": true})
}
