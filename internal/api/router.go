package api

import (
	routes "thermlink/internal/api/handlers"
	"thermlink/internal/service/imports"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, config map[string]string, importService *imports.ImportService) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), config)

	// Setup import handlers
	routes.SetupImportHandlers(api, importService)
}
