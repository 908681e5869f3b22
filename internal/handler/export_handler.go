package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"finrecon/internal/service"
)

// ExportHandler handles report export endpoints.
type ExportHandler struct {
	exportService service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func parseFormat(c *gin.Context) (service.ExportFormat, bool) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	switch format {
	case service.FormatCSV, service.FormatXLSX:
		return format, true
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "invalid 'format': must be csv or xlsx")
		return "", false
	}
}

// Download handles GET /api/v1/runs/:id/export
func (h *ExportHandler) Download(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	format, ok := parseFormat(c)
	if !ok {
		return
	}

	report, err := h.exportService.Render(c.Request.Context(), runID, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

// Archive handles POST /api/v1/runs/:id/export/archive
func (h *ExportHandler) Archive(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	format, ok := parseFormat(c)
	if !ok {
		return
	}

	url, err := h.exportService.Archive(c.Request.Context(), runID, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url})
}
