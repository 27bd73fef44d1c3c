package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rag-tutor-backend/models"
)

// ErrUnknownTopic is reported when a topic id is not present in memory or
// on disk. It is a caller error, not retried.
var ErrUnknownTopic = errors.New("unknown topic")

// ErrInvalidTopicID is reported for ids that are empty, too long, or carry
// characters outside the safe set. Ids become file names, so anything that
// could change the resolved path is rejected before touching the disk.
var ErrInvalidTopicID = errors.New("invalid topic id")

// ValidID reports whether id is safe to use as a topic identifier:
// non-empty, at most 128 characters, and restricted to ASCII letters,
// digits, '-' and '_'.
func ValidID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Repository keeps ingested topics in memory with write-through
// persistence to one JSON file per topic. Topics are immutable after Put,
// so readers only need the map lock, never a per-topic lock.
type Repository struct {
	dir string

	mu     sync.RWMutex
	topics map[string]*models.Topic
}

func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create topics dir: %w", err)
	}
	return &Repository{
		dir:    dir,
		topics: make(map[string]*models.Topic),
	}, nil
}

// LoadAll reads every persisted topic into memory. Unreadable files are
// skipped with a warning so one corrupt record cannot block startup.
func (r *Repository) LoadAll() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read topics dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		topic, err := r.readFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			slog.Warn("Skipping unreadable topic file", "file", e.Name(), "error", err)
			continue
		}
		r.mu.Lock()
		r.topics[topic.ID] = topic
		r.mu.Unlock()
		loaded++
	}

	slog.Info("Topics loaded from disk", "count", loaded)
	return nil
}

// Get returns the topic for id, checking memory first and falling back to
// disk. Misses on both report ErrUnknownTopic.
func (r *Repository) Get(id string) (*models.Topic, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopicID, id)
	}

	r.mu.RLock()
	topic, ok := r.topics[id]
	r.mu.RUnlock()
	if ok {
		return topic, nil
	}

	topic, err := r.readFile(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, id)
		}
		return nil, err
	}

	r.mu.Lock()
	r.topics[topic.ID] = topic
	r.mu.Unlock()
	return topic, nil
}

// Put persists the topic to disk first, then publishes it in memory, so a
// topic visible to readers is always durable.
func (r *Repository) Put(topic *models.Topic) error {
	if !ValidID(topic.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidTopicID, topic.ID)
	}

	raw, err := json.MarshalIndent(topic, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode topic: %w", err)
	}
	if err := os.WriteFile(r.path(topic.ID), raw, 0644); err != nil {
		return fmt.Errorf("failed to write topic: %w", err)
	}

	r.mu.Lock()
	r.topics[topic.ID] = topic
	r.mu.Unlock()
	return nil
}

// List returns the topics currently in memory, without their chunks.
func (r *Repository) List() []models.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Topic, 0, len(r.topics))
	for _, t := range r.topics {
		out = append(out, models.Topic{
			ID:        t.ID,
			Title:     t.Title,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

func (r *Repository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *Repository) readFile(path string) (*models.Topic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var topic models.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return nil, fmt.Errorf("failed to parse topic file %s: %w", filepath.Base(path), err)
	}
	if !ValidID(topic.ID) {
		return nil, fmt.Errorf("topic file %s has an invalid id", filepath.Base(path))
	}
	return &topic, nil
}
