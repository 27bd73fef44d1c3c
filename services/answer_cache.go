package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"rag-tutor-backend/models"

	"github.com/redis/go-redis/v9"
)

// AnswerCache stores composed answers in Redis keyed by topic and
// normalized question. Redis being down is invisible to callers: lookups
// miss and writes are dropped, so chat keeps working without the cache.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

// Get returns a cached answer for the topic/question pair, or nil on miss.
func (c *AnswerCache) Get(ctx context.Context, topicID, question string) *models.AnswerResult {
	if c.rdb == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, c.key(topicID, question)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("Answer cache lookup failed", "error", err)
		}
		return nil
	}

	var result models.AnswerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("Answer cache entry corrupt, ignoring", "error", err)
		return nil
	}
	return &result
}

// Put caches the answer with the configured TTL. Failures are logged and
// otherwise ignored.
func (c *AnswerCache) Put(ctx context.Context, topicID, question string, result *models.AnswerResult) {
	if c.rdb == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(topicID, question), raw, c.ttl).Err(); err != nil {
		slog.Debug("Answer cache write failed", "error", err)
	}
}

func (c *AnswerCache) key(topicID, question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(normalized))
	return "answer:" + topicID + ":" + hex.EncodeToString(sum[:16])
}
