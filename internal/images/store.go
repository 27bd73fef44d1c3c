package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rag-tutor-backend/internal/ai"
	"rag-tutor-backend/models"
)

// Embedder provides embeddings for catalog entries and match queries.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Store is the illustrative-image catalog. Assets are loaded and embedded
// once at startup; afterwards the catalog is only read, so lookups need no
// locking. A missing catalog file leaves the store not-ready, in which
// case every lookup degrades to an empty result instead of erroring.
type Store struct {
	embedder Embedder
	assets   []models.ImageAsset
	ready    bool
}

func NewStore(embedder Embedder) *Store {
	return &Store{embedder: embedder}
}

// Init reads the catalog file and precomputes an embedding per asset from
// its title, description and keywords.
func (s *Store) Init(ctx context.Context, catalogPath string) error {
	raw, err := os.ReadFile(catalogPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Image catalog not found, image matching disabled", "path", catalogPath)
			return nil
		}
		return fmt.Errorf("failed to read image catalog: %w", err)
	}

	var assets []models.ImageAsset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return fmt.Errorf("failed to parse image catalog: %w", err)
	}

	for i := range assets {
		text := describeAsset(&assets[i])
		assets[i].Embedding = s.embedder.Embed(ctx, text)
		if len(assets[i].Embedding) == 0 {
			slog.Warn("Image embedding unavailable", "image_id", assets[i].ID)
		}
	}

	s.assets = assets
	s.ready = true
	slog.Info("Image catalog loaded", "assets", len(assets))
	return nil
}

func (s *Store) Ready() bool {
	return s.ready
}

// ByTopic returns the catalog assets whose topic matches exactly. Not-ready
// stores return an empty slice.
func (s *Store) ByTopic(topicID string) []models.ImageAsset {
	if !s.ready {
		return nil
	}
	var out []models.ImageAsset
	for _, a := range s.assets {
		if a.TopicID == topicID {
			out = append(out, a)
		}
	}
	return out
}

// BestMatch embeds text and returns the most similar asset, restricted to
// topicID when non-empty. No threshold is applied: a non-empty candidate
// set always yields an asset, however weak the best score. Ties keep the
// first-encountered asset.
func (s *Store) BestMatch(ctx context.Context, text, topicID string) *models.ImageAsset {
	if !s.ready {
		return nil
	}

	candidates := s.assets
	if topicID != "" {
		candidates = s.ByTopic(topicID)
	}
	if len(candidates) == 0 {
		return nil
	}

	query := s.embedder.Embed(ctx, text)

	// Seed with the first candidate so even a uniformly bad score set still
	// yields an asset.
	best := &candidates[0]
	bestScore := ai.CosineSimilarity(query, candidates[0].Embedding)
	for i := 1; i < len(candidates); i++ {
		score := ai.CosineSimilarity(query, candidates[i].Embedding)
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	return best
}

func describeAsset(a *models.ImageAsset) string {
	return a.Title + ". " + a.Description + ". " + strings.Join(a.Keywords, ", ")
}
