package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/bootstrap"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/http/handlers"
	"github.com/phambaophuc/image-alt/internal/http/routes"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if cfg.Server.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	app, err := bootstrap.NewApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app.Services.Manager.StartJanitor(ctx, time.Minute)

	var jobs handlers.JobQueue
	if q := app.Infrastructure.Queue; q != nil {
		jobs = q
		for i := 1; i <= cfg.RabbitMQ.WorkerCount; i++ {
			if err := q.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(app.Infrastructure.Storage, app.Infrastructure.Captioner, jobs, logger, cfg)
	batchHandler := handlers.NewBatchHandler(app.Services.Manager, logger, cfg)

	maxBodySize := int64(cfg.Batch.MaxBatchSize)*cfg.Batch.MaxFileSize*4 + 1<<20
	router := routes.NewRouter(imageHandler, batchHandler, cfg.Server.AllowedOrigins, maxBodySize, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()
	if err := app.Shutdown(); err != nil {
		logger.Error("Failed to release resources", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
