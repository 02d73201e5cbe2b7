package main

import (
	"context"
	"fmt"

	"food-analyzer/internal/api/middleware"
	"food-analyzer/internal/core/ai/gemini"
	"food-analyzer/internal/core/ai/openrouter"
	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/core/analysis"
	"food-analyzer/internal/core/gate"
	"food-analyzer/internal/core/nutrition"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// setup 載入設定並初始化 logger
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.Version == "" || Version != "dev" {
		cfg.App.Version = Version
	}

	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	common.LogInfo("載入設定",
		zap.String("env", cfg.App.Env),
		zap.String("provider", cfg.Inference.Provider),
		zap.String("gemini_api_key", common.MaskSecret(cfg.Gemini.APIKey)),
		zap.String("gemini_model", cfg.Gemini.Model),
		zap.String("openrouter_api_key", common.MaskSecret(cfg.OpenRouter.APIKey)),
	)
	return cfg, nil
}

// newProviderFactory 依設定選擇圖片辨識服務
func newProviderFactory(cfg *config.Config) (provider.Factory, error) {
	switch cfg.Inference.Provider {
	case config.ProviderGemini:
		return gemini.NewFactory(cfg.Gemini), nil
	case config.ProviderOpenRouter:
		return openrouter.NewFactory(cfg.OpenRouter), nil
	}
	return nil, fmt.Errorf("unknown inference provider %q", cfg.Inference.Provider)
}

// newNutritionService 建立查詢服務，快取開啟但連不上時只記錄警告
func newNutritionService(ctx context.Context, cfg *config.Config) (*nutrition.Service, func()) {
	var (
		cache   nutrition.Cache
		closeFn = func() {}
	)

	if cfg.Cache.Enabled {
		rc, err := nutrition.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			common.LogWarn("Search cache disabled", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		} else {
			cache = rc
			closeFn = func() {
				if err := rc.Close(); err != nil {
					common.LogWarn("Failed to close search cache", zap.Error(err))
				}
			}
		}
	}

	svc := nutrition.NewService(nutrition.NewClient(cfg.Search), cache, cfg.Search.Deadline)
	return svc, closeFn
}

// newAnalysisService 建立呼叫者鎖與分析服務
func newAnalysisService(cfg *config.Config) (*analysis.Service, *gate.Registry, error) {
	factory, err := newProviderFactory(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := gate.NewRegistry(gate.Options{
		IdleTTL:         cfg.Gate.IdleTTL,
		MaxSize:         cfg.Gate.MaxSize,
		CleanupInterval: cfg.Gate.CleanupInterval,
	})

	bounds := analysis.Bounds{Min: cfg.Analysis.MinDimension, Max: cfg.Analysis.MaxDimension}
	invoker := analysis.NewInvoker(factory, bounds, cfg.App.IsProduction())

	return analysis.NewService(registry, invoker, cfg.Analysis.Deadline), registry, nil
}

// newRateLimiter 限流未啟用時回傳 nil，閒置的桶每個 window 清理一次
func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Window)
}
