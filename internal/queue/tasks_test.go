package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"

	"rag-tutor-backend/internal/config"
	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/services"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) []float32 { return []float32{1} }

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, parts ...string) (string, error) {
	return "ok", nil
}

func newTestProcessor(t *testing.T) *TaskProcessor {
	t.Helper()

	repo, err := topics.NewRepository(filepath.Join(t.TempDir(), "topics"))
	if err != nil {
		t.Fatal(err)
	}
	storage, err := services.NewFileStorageManager(&config.Config{
		FileStorageDir: t.TempDir(),
		MaxFileSize:    1 << 20,
	})
	if err != nil {
		t.Fatal(err)
	}

	ragService := rag.NewService(stubEmbedder{}, stubGenerator{}, 800, 4, 0.3)
	return NewTaskProcessor(services.NewPDFExtractor(), ragService, repo, storage)
}

func TestProcessIngestBadPayloadSkipsRetry(t *testing.T) {
	p := newTestProcessor(t)

	task := asynq.NewTask(TaskIngestDocument, []byte("{broken"))
	err := p.ProcessIngest(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestProcessIngestUnreadablePDFSkipsRetry(t *testing.T) {
	p := newTestProcessor(t)

	// Not a PDF: extraction can never succeed, so the task must not retry.
	path := filepath.Join(t.TempDir(), "bogus.pdf")
	if err := os.WriteFile(path, []byte("plain text, no pdf header"), 0644); err != nil {
		t.Fatal(err)
	}

	task, err := NewIngestTask("t1", "Bogus", path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ProcessIngest(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}
