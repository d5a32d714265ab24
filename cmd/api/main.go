package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/visually/visually-api/pkg/validator"

	"github.com/visually/visually-api/internal/adapter/handler"
	"github.com/visually/visually-api/internal/adapter/repository"
	"github.com/visually/visually-api/internal/bootstrap"
	"github.com/visually/visually-api/internal/infrastructure/database"
	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Reject oversized uploads before they are buffered
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB)))

	ctx := context.Background()

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply embedded migrations only when explicitly enabled in config.
	// Production deployments run scripts/migrate.go instead.
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Disable it and run scripts/migrate.go.")
		}
		log.Println("🔄 Applying embedded sql-migrate migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping embedded migrations; run scripts/migrate.go to manage the schema")
	}

	// Footage search cache (Redis when enabled, in-memory otherwise)
	log.Println("📦 Initializing footage cache...")
	footageCache := bootstrap.FootageCache(ctx, cfg, logger)
	defer footageCache.Close()

	// Initialize external collaborators
	log.Printf("🤖 Initializing collaborators (transcription=%s, analysis=%s)...",
		cfg.Transcription.Provider, cfg.Analysis.Provider)
	collaborators, store, err := bootstrap.Collaborators(ctx, cfg, footageCache, logger)
	if err != nil {
		log.Fatalf("Failed to initialize collaborators: %v", err)
	}

	bucketCtx, cancelBucket := context.WithTimeout(ctx, 15*time.Second)
	if err := store.EnsureBucket(bucketCtx); err != nil {
		log.Fatalf("Failed to prepare storage bucket: %v", err)
	}
	cancelBucket()

	// Initialize video service
	log.Println("🎬 Initializing video service...")
	pipeline := video.NewPipeline(collaborators, bootstrap.PipelineOptions(cfg), logger)
	runRepo := repository.NewRenderRunRepository(db)
	videoService := video.NewService(pipeline, runRepo, video.ServiceConfig{
		MaxConcurrentRuns: cfg.Server.MaxConcurrentRuns,
		RunTimeout:        cfg.Server.RunTimeout,
		DefaultModel:      cfg.Transcription.Model,
	}, logger)

	if err := videoService.RecoverInterrupted(ctx); err != nil {
		logger.Error("❌ Failed to recover interrupted runs", zap.Error(err))
	}

	videoHandler := handler.NewVideo(videoService, cfg.Server.UploadDir, cfg.MaxUploadBytes(), logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, videoHandler,
		handler.HealthCheck{Name: "storage", Check: store.Check},
		handler.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	// Let accepted render runs finish
	if err := videoService.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
