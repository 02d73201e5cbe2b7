package api

import (
	"errors"
	"time"

	"food-analyzer/internal/api/handlers/food"
	"food-analyzer/internal/api/handlers/health"
	"food-analyzer/internal/api/middleware"
	"food-analyzer/internal/core/analysis"
	"food-analyzer/internal/core/gate"
	"food-analyzer/internal/core/nutrition"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipart 包裝的額外空間，超出圖片上限的部分交給處理器回報
const multipartOverhead = 1 << 20

// Dependencies 路由需要的服務
type Dependencies struct {
	Analysis  *analysis.Service
	Nutrition *nutrition.Service
	Gate      *gate.Registry

	// RateLimiter 只在啟用限流時需要
	RateLimiter *middleware.RateLimiter
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Analysis == nil || deps.Nutrition == nil || deps.Gate == nil {
		return nil, errors.New("router dependencies are not initialized")
	}
	if cfg.RateLimit.Enabled && deps.RateLimiter == nil {
		return nil, errors.New("rate limit is enabled but no limiter was provided")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	maxBodySize := cfg.Image.MaxSizeBytes + multipartOverhead
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(deps.RateLimiter))
	}

	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.GET("/", health.Info)
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(deps.Gate))
	router.GET("/live", health.LivenessCheck)

	analyze := food.HandleAnalyze(deps.Analysis, food.AnalyzeOptions{Image: cfg.Image, Debug: cfg.App.Debug})
	search := food.HandleSearch(deps.Nutrition, cfg.App.Debug)

	router.POST("/analyze/", analyze)
	router.GET("/search/", search)

	common.LogInfo("Router setup completed successfully",
		zap.String("provider", cfg.Inference.Provider),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("analysis_deadline", deps.Analysis.Deadline()),
		zap.Duration("search_deadline", deps.Nutrition.Deadline()),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
