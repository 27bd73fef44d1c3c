package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/services"
)

const TaskIngestDocument = "topic:ingest"

type IngestPayload struct {
	TopicID  string `json:"topic_id"`
	Title    string `json:"title"`
	FilePath string `json:"file_path"`
}

// NewIngestTask enqueues a background ingestion for a staged PDF.
func NewIngestTask(topicID, title, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		TopicID:  topicID,
		Title:    title,
		FilePath: filePath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// Task handlers
type TaskProcessor struct {
	extractor  *services.PDFExtractor
	ragService *rag.Service
	repo       *topics.Repository
	storage    *services.FileStorageManager
}

func NewTaskProcessor(extractor *services.PDFExtractor, ragService *rag.Service, repo *topics.Repository, storage *services.FileStorageManager) *TaskProcessor {
	return &TaskProcessor{
		extractor:  extractor,
		ragService: ragService,
		repo:       repo,
		storage:    storage,
	}
}

func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	slog.Info("Processing ingestion task", "topic_id", payload.TopicID, "file", payload.FilePath)

	// A PDF that cannot be extracted or yields no chunks will not get better
	// on retry; only persistence failures are worth another attempt.
	result, err := p.extractor.ExtractText(ctx, payload.FilePath)
	if err != nil {
		return fmt.Errorf("extraction failed for topic %s: %v: %w", payload.TopicID, err, asynq.SkipRetry)
	}

	topic, err := p.ragService.BuildTopic(ctx, payload.TopicID, payload.Title, result.Text)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyCorpus) {
			return fmt.Errorf("indexing failed for topic %s: %v: %w", payload.TopicID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("indexing failed for topic %s: %w", payload.TopicID, err)
	}

	if err := p.repo.Put(topic); err != nil {
		return fmt.Errorf("persist failed for topic %s: %w", payload.TopicID, err)
	}

	p.storage.Remove(payload.FilePath)

	slog.Info("Topic ingested", "topic_id", payload.TopicID, "chunks", len(topic.Chunks), "pages", result.Pages)
	return nil
}
