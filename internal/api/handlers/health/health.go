package health

import (
	"net/http"
	"runtime"
	"time"

	"food-analyzer/internal/core/gate"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceName /health 回報的服務名稱
const ServiceName = "food-detect"

// InfoResponse 根路徑響應
type InfoResponse struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

// LivenessResponse 存活檢查響應
type LivenessResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// ReadinessResponse 就緒檢查響應
type ReadinessResponse struct {
	Status   string     `json:"status"`
	Provider string     `json:"provider"`
	Cache    bool       `json:"cache_enabled"`
	Gate     gate.Stats `json:"gate"`
}

// Info 服務資訊
func Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Message:     "Food Analysis API",
		Description: "Анализ изображений еды и определение пищевой ценности",
	})
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// ReadinessCheck 就緒檢查處理器，回報呼叫者鎖狀態
func ReadinessCheck(registry *gate.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, ok := configFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Configuration not found"})
			return
		}

		c.JSON(http.StatusOK, ReadinessResponse{
			Status:   "ready",
			Provider: cfg.Inference.Provider,
			Cache:    cfg.Cache.Enabled,
			Gate:     registry.Stats(),
		})
	}
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	cfg, ok := configFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Configuration not found"})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	common.LogDebug("Liveness check request",
		zap.String("client_ip", c.ClientIP()),
	)

	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	})
}

// configFrom 取出路由注入的設定
func configFrom(c *gin.Context) (*config.Config, bool) {
	v, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		return nil, false
	}
	cfg, ok := v.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
	}
	return cfg, ok
}
