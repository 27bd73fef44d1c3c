package models

import "time"

// Chunk is one sentence-aligned segment of an ingested document together
// with its embedding. Chunks are created at ingestion and never updated.
type Chunk struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Topic is one ingested document: its ordered chunks plus metadata.
// Topics are written once at ingestion and only read afterwards.
type Topic struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Chunks    []Chunk   `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievalResult is a chunk scored against a query embedding.
type RetrievalResult struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// AnswerResult is the outcome of one grounded question/answer request.
type AnswerResult struct {
	Answer       string            `json:"answer"`
	UsedChunks   []RetrievalResult `json:"used_chunks"`
	FallbackUsed bool              `json:"fallback_used"`
}

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	TopicID  string `json:"topic_id" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// UploadResponse is returned after a document has been ingested (or queued).
type UploadResponse struct {
	TopicID    string `json:"topic_id"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Status     string `json:"status"`
	TaskID     string `json:"task_id,omitempty"`
}

// Ingestion status constants
const (
	StatusCompleted  = "completed"
	StatusProcessing = "processing"
)
