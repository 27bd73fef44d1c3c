package main

import (
	"context"
	"log"
	"log/slog"

	"rag-tutor-backend/internal/ai"
	"rag-tutor-backend/internal/config"
	"rag-tutor-backend/internal/logger"
	"rag-tutor-backend/internal/queue"
	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

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

	storage, err := services.NewFileStorageManager(cfg)
	if err != nil {
		log.Fatal("Failed to initialize file storage:", err)
	}

	extractor := services.NewPDFExtractor()

	// Create Asynq server
	server := asynq.NewServer(
		config.AsynqRedisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				slog.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(extractor, ragService, repo, storage)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.ProcessIngest)

	slog.Info("Starting worker", "concurrency", 10)
	if err := server.Run(mux); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
