package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/camrig/internal/config"
)

// Version is reported by the root route.
const Version = "0.18.1"

// NewRouter builds the gin engine of the bridge.
func NewRouter(cfg config.Server, logger logrus.FieldLogger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	NewCameraHandler(logger, config.DefaultValidationPolicy(), cfg).RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "camrig bridge",
			"version": Version,
			"status":  "running",
		})
	})
	return router
}
