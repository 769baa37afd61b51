package routes

import (
	"net/http"

	"thermlink/internal/postgres"
	"thermlink/internal/redis"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"port":       config["port"],
			"unitSystem": config["unitSystem"],
			"tolerance":  config["tolerance"],
			"postgres":   postgres.GetDB() != nil,
			"redis":      redis.Enabled(),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
