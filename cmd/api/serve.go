package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"food-analyzer/internal/api"
	"food-analyzer/internal/pkg/common"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "啟動 HTTP 服務",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := setup()
	if err != nil {
		return err
	}
	defer common.Sync()

	analysisSvc, registry, err := newAnalysisService(cfg)
	if err != nil {
		return err
	}
	defer registry.Close()

	nutritionSvc, closeCache := newNutritionService(ctx, cfg)
	defer closeCache()

	deps := api.Dependencies{
		Analysis:  analysisSvc,
		Nutrition: nutritionSvc,
		Gate:      registry,
	}
	if limiter := newRateLimiter(cfg); limiter != nil {
		defer limiter.Close()
		deps.RateLimiter = limiter
	}

	router, err := api.SetupRouter(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := api.NewServer(cfg, router)

	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.String("addr", srv.Addr),
			zap.Bool("debug", cfg.App.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()

	<-ctx.Done()
	common.LogInfo("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	default:
	}

	common.LogInfo("Server exited")
	return nil
}
