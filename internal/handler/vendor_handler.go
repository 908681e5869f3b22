package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finrecon/internal/service"
)

// VendorHandler handles vendor resolution endpoints.
type VendorHandler struct {
	resolutionService service.ResolutionService
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(resolutionService service.ResolutionService) *VendorHandler {
	return &VendorHandler{resolutionService: resolutionService}
}

// Groups handles GET /api/v1/runs/:id/vendors
func (h *VendorHandler) Groups(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	groups, err := h.resolutionService.VendorGroups(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, groups)
}

// NotifyInput is the request body for a vendor follow-up notification.
type NotifyInput struct {
	VendorGSTIN string `json:"vendor_gstin" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

// Notify handles POST /api/v1/runs/:id/vendors/notify
func (h *VendorHandler) Notify(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	var input NotifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.resolutionService.NotifyVendor(c.Request.Context(), runID, input.VendorGSTIN, input.Email); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"notified": input.VendorGSTIN})
}
