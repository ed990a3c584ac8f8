package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voiceagent/config"
	"voiceagent/core"
	"voiceagent/persist"
	"voiceagent/postcall"
	"voiceagent/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(".env.local"); err != nil {
		core.GetLogger().With(map[string]any{"error": err}).Warn("No .env.local file found or failed to load")
	}

	cfg := config.Load()
	logger := core.GetLogger()

	postcallClient := postcall.NewClient(postcall.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  postcall.DefaultConfig().Model,
	})
	reconciler := postcall.NewReconciler(postcallClient, logger)

	dispatcherCfg := persist.DefaultConfig()
	dispatcherCfg.Endpoint = cfg.CallCompleteURL()
	dispatcher := persist.NewDispatcher(dispatcherCfg, logger)

	// The real-time audio pipeline (STT, live LLM, TTS) is an external
	// collaborator attached here when this service is embedded in a worker.
	srv := server.New(cfg, nil, reconciler, dispatcher, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.With(map[string]any{"error": err}).Error("server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.With(map[string]any{"error": err}).Error("shutdown error")
	}
}
