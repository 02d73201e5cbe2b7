package api

import (
	"fmt"
	"net/http"

	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// NewServer 建立 HTTP 服務。
// 同一呼叫者的請求可能在鎖前排隊，時間不受分析期限限制，
// 因此 WriteTimeout 預設為 0，由分析期限與請求 ctx 控制。
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	if cfg.Server.WriteTimeout > 0 && cfg.Server.WriteTimeout <= cfg.Analysis.Deadline {
		common.LogWarn("WriteTimeout 小於分析期限，排隊中的請求可能無法寫回結果",
			zap.Duration("write_timeout", cfg.Server.WriteTimeout),
			zap.Duration("analysis_deadline", cfg.Analysis.Deadline),
		)
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
