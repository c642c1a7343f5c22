package routes

import (
	"github.com/gin-gonic/gin"

	"hmisync/internal/config"
	"hmisync/internal/controllers"
	"hmisync/internal/engine"
	"hmisync/internal/ledger"
)

// SetupRouter initializes all services, controllers, and API routes
func SetupRouter(l *ledger.Ledger, e *engine.Engine, cfg *config.Config) *gin.Engine {
	hmisController := controllers.HmisController{
		Ledger: l,
		Engine: e,
		Config: cfg,
	}

	// Set up Gin router
	router := gin.Default()

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	// Group API routes under /api/v1
	api := router.Group("/api/v1")
	{
		hmis := api.Group("/hmis/:vendor")
		{
			// POST /api/v1/hmis/:vendor/scan
			// Resolves a scanned barcode and appends it to the ledger
			hmis.POST("/scan", hmisController.Scan)

			// GET /api/v1/hmis/:vendor/barcodes
			hmis.GET("/barcodes", hmisController.Barcodes)

			// POST /api/v1/hmis/:vendor/barcodes/:id/upload
			hmis.POST("/barcodes/:id/upload", hmisController.UploadOne)

			// POST /api/v1/hmis/:vendor/upload
			// Uploads every pending ledger entry of the vendor
			hmis.POST("/upload", hmisController.UploadPending)

			// DELETE /api/v1/hmis/:vendor/barcodes/:id
			hmis.DELETE("/barcodes/:id", hmisController.Remove)

			// GET /api/v1/hmis/:vendor/events (SSE)
			hmis.GET("/events", hmisController.Events)
		}
	}

	return router
}
