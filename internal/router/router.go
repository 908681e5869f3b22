package router

import (
	"github.com/gin-gonic/gin"

	"finrecon/internal/handler"
	"finrecon/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	runH *handler.RunHandler,
	exportH *handler.ExportHandler,
	vendorH *handler.VendorHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	runs := v1.Group("/runs")
	runs.POST("", runH.Create)
	runs.GET("", runH.List)
	runs.GET("/:id", runH.GetByID)
	runs.DELETE("/:id", runH.Delete)
	runs.POST("/:id/invoices", runH.UploadInvoices)
	runs.POST("/:id/enqueue", runH.Enqueue)
	runs.GET("/:id/results", runH.Results)
	runs.GET("/:id/summary", runH.Summary)
	runs.PUT("/:id/classifications/:classificationID", runH.Override)

	// Report exports
	runs.GET("/:id/export", exportH.Download)
	runs.POST("/:id/export/archive", exportH.Archive)

	// Vendor resolution
	runs.GET("/:id/vendors", vendorH.Groups)
	runs.POST("/:id/vendors/notify", vendorH.Notify)

	return r
}
