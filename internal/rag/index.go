package rag

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"rag-tutor-backend/internal/ai"
	"rag-tutor-backend/models"
)

// ErrEmptyCorpus is returned when ingestion produces zero chunks; nothing
// is stored in that case.
var ErrEmptyCorpus = errors.New("document text produced no chunks")

// Embedder provides embedding vectors for queries and chunks. An empty
// vector means "no embedding available" and scores 0 against everything.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Generator is the external generative model, treated as a black box that
// turns prompt parts into unstructured text.
type Generator interface {
	Generate(ctx context.Context, parts ...string) (string, error)
}

// Service is the retrieval-augmented answering core: it builds topics from
// raw text and answers questions grounded in a topic's chunks.
type Service struct {
	embedder           Embedder
	generator          Generator
	maxChunkSize       int
	topK               int
	relevanceThreshold float64
}

func NewService(embedder Embedder, generator Generator, maxChunkSize, topK int, relevanceThreshold float64) *Service {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if topK <= 0 {
		topK = 4
	}
	return &Service{
		embedder:           embedder,
		generator:          generator,
		maxChunkSize:       maxChunkSize,
		topK:               topK,
		relevanceThreshold: relevanceThreshold,
	}
}

// BuildTopic chunks the text and embeds each chunk in order, assigning ids
// 0..n-1. A failed embedding degrades that chunk to an empty vector instead
// of aborting the whole build; such a chunk simply becomes unrankable.
func (s *Service) BuildTopic(ctx context.Context, id, title, text string) (*models.Topic, error) {
	raw := ChunkText(text, s.maxChunkSize)
	if len(raw) == 0 {
		return nil, ErrEmptyCorpus
	}

	chunks := make([]models.Chunk, 0, len(raw))
	for i, t := range raw {
		vec := s.embedder.Embed(ctx, t)
		if len(vec) == 0 {
			slog.Warn("Chunk embedding unavailable", "topic_id", id, "chunk_id", i)
		}
		chunks = append(chunks, models.Chunk{
			ID:        i,
			Text:      t,
			Embedding: vec,
		})
	}

	return &models.Topic{
		ID:        id,
		Title:     title,
		Chunks:    chunks,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RetrieveTopK scores every chunk against the query embedding and returns
// the k best, sorted by descending score. Equal scores keep the original
// chunk order. Fewer than k chunks returns all of them.
func RetrieveTopK(query []float32, chunks []models.Chunk, k int) []models.RetrievalResult {
	scored := make([]models.RetrievalResult, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, models.RetrievalResult{
			ChunkID: c.ID,
			Text:    c.Text,
			Score:   ai.CosineSimilarity(query, c.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// MaxSimilarity returns the highest similarity between the query embedding
// and any chunk in the set. Used by the fallback gate, which must consider
// the whole topic rather than just the retrieved top-K.
func MaxSimilarity(query []float32, chunks []models.Chunk) float64 {
	best := 0.0
	for i, c := range chunks {
		score := ai.CosineSimilarity(query, c.Embedding)
		if i == 0 || score > best {
			best = score
		}
	}
	return best
}
