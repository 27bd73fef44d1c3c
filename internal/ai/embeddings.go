package ai

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"rag-tutor-backend/internal/config"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

// Embedder turns text into L2-normalized embedding vectors using Google
// Generative AI. The underlying client is created lazily on first use and
// shared for the process lifetime.
//
// Embed never returns an error: any load or inference failure is logged and
// degrades to an empty vector, so scoring stays total for every caller
// (an empty vector scores 0 against everything).
type Embedder struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewEmbedder(cfg *config.Config) *Embedder {
	return &Embedder{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GoogleEmbeddingsModel,
	}
}

// getClient initializes the shared genai client at most once. Concurrent
// first callers block on the mutex until the in-flight load finishes; a
// failed load is retried by the next caller rather than cached forever.
func (e *Embedder) getClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	slog.Info("Loading embedding client", "model", e.model)
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, err
	}
	e.client = client
	slog.Info("Embedding client loaded")
	return e.client, nil
}

// Embed returns the embedding vector for text, or an empty vector if the
// model is unavailable or inference fails.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	tracer := otel.Tracer("embedder")
	ctx, span := tracer.Start(ctx, "embedder.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("embeddings.model", e.model),
		attribute.Int("embeddings.input_chars", len(text)),
	)

	client, err := e.getClient(ctx)
	if err != nil {
		slog.Error("Embedding client init failed", "error", err)
		span.SetAttributes(attribute.Bool("embeddings.error", true))
		return nil
	}

	model := client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.Error("Embedding request failed", "error", err)
		span.SetAttributes(attribute.Bool("embeddings.error", true))
		return nil
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		slog.Error("Embedding response empty")
		span.SetAttributes(attribute.Bool("embeddings.error", true))
		return nil
	}

	vec := normalize(resp.Embedding.Values)
	span.SetAttributes(attribute.Int("embeddings.dimension", len(vec)))
	return vec
}

// Close releases the shared client, if it was ever created.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// normalize scales v to unit L2 norm in place. Zero vectors pass through.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
