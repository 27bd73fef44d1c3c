package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rag-tutor-backend/internal/ai"
	"rag-tutor-backend/internal/config"
	"rag-tutor-backend/internal/images"
	"rag-tutor-backend/internal/logger"
	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/telemetry"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/middleware"
	"rag-tutor-backend/routes"
	"rag-tutor-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing is optional; without it spans are no-ops
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("rag-tutor-backend", cfg.OTLPEndpoint)
		if err != nil {
			slog.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Redis backs the answer cache and rate limiting; both fail open
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		slog.Warn("Redis unavailable, caching and rate limiting disabled", "error", err)
		rdb = nil
	}

	embedder := ai.NewEmbedder(cfg)
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	ragService := rag.NewService(embedder, geminiClient, cfg.MaxChunkSize, cfg.TopK, cfg.RelevanceThreshold)

	repo, err := topics.NewRepository(cfg.TopicsDir)
	if err != nil {
		log.Fatal("Failed to open topic store:", err)
	}
	if err := repo.LoadAll(); err != nil {
		log.Fatal("Failed to load topics:", err)
	}

	imageStore := images.NewStore(embedder)
	if err := imageStore.Init(context.Background(), cfg.ImageCatalogPath); err != nil {
		log.Fatal("Failed to load image catalog:", err)
	}

	storage, err := services.NewFileStorageManager(cfg)
	if err != nil {
		log.Fatal("Failed to initialize file storage:", err)
	}

	extractor := services.NewPDFExtractor()
	exporter := services.NewExportService()
	answerCache := services.NewAnswerCache(rdb, time.Duration(cfg.AnswerCacheTTLMinutes)*time.Minute)

	cron := services.NewCronService(cfg, storage)
	if err := cron.Start(); err != nil {
		slog.Warn("Cron scheduler failed to start", "error", err)
	}
	defer cron.Stop()

	queueClient := asynq.NewClient(config.AsynqRedisOpt(cfg))
	defer queueClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"timestamp":      time.Now(),
			"topics":         len(repo.List()),
			"images_loaded":  imageStore.Ready(),
		})
	})

	router.Static("/static/images", cfg.StaticImagesDir)

	// Setup routes
	routes.SetupTopicRoutes(router, cfg, extractor, ragService, repo, storage, exporter, queueClient, metrics)
	routes.SetupChatRoutes(router, cfg, ragService, repo, imageStore, answerCache, metrics)
	routes.SetupImageRoutes(router, imageStore)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	slog.Info("Server exited")
}
