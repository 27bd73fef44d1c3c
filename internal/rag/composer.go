package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rag-tutor-backend/models"
)

// RefusalPhrase is the fixed reply the grounded prompt instructs the model
// to use when the retrieved context does not support an answer.
const RefusalPhrase = "I am not sure based on this chapter."

// fallbackDisclaimer is appended to unconstrained fallback answers.
const fallbackDisclaimer = "*Note: This answer was generated outside the chapter context and may be open-ended.*"

// Answer runs the per-request pipeline: retrieve the top-K chunks for the
// question, generate a grounded answer restricted to them, then decide
// whether to fall back to an unconstrained answer.
//
// The fallback fires only when the model refused AND the question still
// looks topically relevant: the refusal phrase appears in the answer and
// the best similarity across ALL of the topic's chunks (not just the
// retrieved top-K) exceeds the relevance threshold. A refusal for a
// genuinely off-topic question stands as-is.
func (s *Service) Answer(ctx context.Context, topic *models.Topic, question string) (*models.AnswerResult, error) {
	queryVec := s.embedder.Embed(ctx, question)
	top := RetrieveTopK(queryVec, topic.Chunks, s.topK)

	answer, err := s.generator.Generate(ctx,
		groundedPrompt(top),
		fmt.Sprintf("Question: %s\nAnswer in a clear, student-friendly way.", question),
	)
	if err != nil {
		return nil, fmt.Errorf("grounded generation failed: %w", err)
	}

	fallbackUsed := false
	if strings.Contains(answer, RefusalPhrase) {
		maxSim := MaxSimilarity(queryVec, topic.Chunks)
		if maxSim > s.relevanceThreshold {
			slog.Info("Grounded answer refused but question appears relevant, falling back",
				"topic_id", topic.ID, "max_similarity", maxSim)

			fallback, err := s.generator.Generate(ctx,
				fmt.Sprintf("You are a tutor. Answer this question clearly and factually:\nQ: %s\nA:", question),
			)
			if err != nil {
				return nil, fmt.Errorf("fallback generation failed: %w", err)
			}
			answer = fallback + "\n\n" + fallbackDisclaimer
			fallbackUsed = true
		}
	}

	return &models.AnswerResult{
		Answer:       answer,
		UsedChunks:   top,
		FallbackUsed: fallbackUsed,
	}, nil
}

// groundedPrompt builds the system instruction that restricts the model to
// the retrieved chunks, labeled "Chunk 1".."Chunk N" in retrieval order.
func groundedPrompt(chunks []models.RetrievalResult) string {
	var blocks strings.Builder
	for i, c := range chunks {
		if i > 0 {
			blocks.WriteString("\n\n")
		}
		fmt.Fprintf(&blocks, "Chunk %d:\n%s", i+1, c.Text)
	}

	return fmt.Sprintf(`You are an AI Tutor for a specific textbook chapter.
You must answer ONLY using the provided context chunks.
If the answer is not clearly supported by the context, say:
%q

Context:
%s`, RefusalPhrase, blocks.String())
}
