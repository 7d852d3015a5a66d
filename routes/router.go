package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/controllers"
	"github.com/cppla/htmlfilter/metrics"
	"github.com/cppla/htmlfilter/middleware"
	"github.com/cppla/htmlfilter/utils"
)

// SetupRouter wires routes, middlewares, and controllers. db and cache may be nil.
func SetupRouter(db *gorm.DB, cache *utils.ResultCache) *gin.Engine {
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
	r.Use(middleware.RequestID())
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestRecorder())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(&metrics.Handler{}))

	filterController := controllers.NewFilterController(db, cache)
	rulesController := controllers.NewRulesController()
	adminController := controllers.NewAdminController(db, cache)

	limited := middleware.RateLimitMiddleware()

	api := r.Group("/api/v1")
	api.GET("/rules", rulesController.ListRules)
	api.POST("/sanitize", limited, filterController.Sanitize)
	api.POST("/balance", limited, filterController.Balance)
	api.POST("/filter", limited, filterController.Filter)

	authGroup := api.Group("/auth")
	authGroup.POST("/token", limited, adminController.Token)
	authGroup.POST("/logout", middleware.AdminRequired(), adminController.Logout)

	protected := api.Group("")
	protected.Use(middleware.AdminRequired())
	protected.GET("/audits", adminController.ListAudits)
	protected.GET("/stats", adminController.GetStats)
	protected.POST("/cache/purge", adminController.PurgeCache)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
