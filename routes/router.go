package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hkanojia/sheetsink/config"
	"github.com/hkanojia/sheetsink/controllers"
	"github.com/hkanojia/sheetsink/middleware"
	"github.com/hkanojia/sheetsink/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(uploads *controllers.UploadController) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	uploadsGroup := api.Group("/uploads")
	uploadsGroup.Use(middleware.RateLimitMiddleware())
	uploadsGroup.POST("", uploads.Upload)
	uploadsGroup.GET("/jobs/:id", uploads.JobStatus)
	uploadsGroup.POST("/cleanup", uploads.Cleanup)

	api.GET("/people/count", uploads.CountPeople)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
