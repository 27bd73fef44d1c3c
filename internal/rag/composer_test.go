package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-tutor-backend/models"
)

func photosynthesisTopic(embed Embedder) *models.Topic {
	return &models.Topic{
		ID:    "bio-1",
		Title: "Plants and Volcanoes",
		Chunks: testChunks(embed,
			"Photosynthesis converts sunlight into chemical energy inside the leaf.",
			"Volcanoes erupt when magma rises through the crust.",
		),
	}
}

func TestAnswerGroundedPath(t *testing.T) {
	embed := fakeEmbedder{axes: []string{"photosynthesis", "leaf", "volcano", "magma"}}
	gen := &fakeGenerator{responses: []string{"Plants use sunlight to make energy."}}
	svc := NewService(embed, gen, 800, 4, 0.3)

	res, err := svc.Answer(context.Background(), photosynthesisTopic(embed), "How does photosynthesis work in a leaf?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.FallbackUsed {
		t.Errorf("fallback fired on a supported answer")
	}
	if res.Answer != "Plants use sunlight to make energy." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.UsedChunks) != 2 {
		t.Fatalf("used %d chunks, want 2", len(res.UsedChunks))
	}
	if res.UsedChunks[0].ChunkID != 0 {
		t.Errorf("top chunk = %d, want the photosynthesis chunk", res.UsedChunks[0].ChunkID)
	}

	// The grounded prompt must carry only topic context, labeled in
	// retrieval order, plus the refusal instruction.
	if len(gen.calls) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.calls))
	}
	prompt := gen.calls[0][0]
	if !strings.Contains(prompt, "Chunk 1:\nPhotosynthesis") {
		t.Errorf("prompt missing labeled top chunk:\n%s", prompt)
	}
	if !strings.Contains(prompt, RefusalPhrase) {
		t.Errorf("prompt missing refusal instruction")
	}
	if !strings.Contains(gen.calls[0][1], "How does photosynthesis work in a leaf?") {
		t.Errorf("question not passed to generator")
	}
}

func TestAnswerRefusalOffTopicNoFallback(t *testing.T) {
	embed := fakeEmbedder{axes: []string{"photosynthesis", "leaf", "volcano", "magma"}}
	gen := &fakeGenerator{responses: []string{RefusalPhrase}}
	svc := NewService(embed, gen, 800, 4, 0.3)

	// No axis keyword appears: max similarity is 0, under the threshold.
	res, err := svc.Answer(context.Background(), photosynthesisTopic(embed), "Who won the world cup in 1998?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.FallbackUsed {
		t.Errorf("fallback fired for an off-topic question")
	}
	if res.Answer != RefusalPhrase {
		t.Errorf("answer = %q, want the refusal to stand", res.Answer)
	}
	if len(gen.calls) != 1 {
		t.Errorf("no second generation call expected, got %d", len(gen.calls))
	}
}

func TestAnswerRefusalRelevantTriggersFallback(t *testing.T) {
	embed := fakeEmbedder{axes: []string{"photosynthesis", "leaf", "volcano", "magma"}}
	gen := &fakeGenerator{responses: []string{
		RefusalPhrase,
		"Photosynthesis is how plants feed themselves.",
	}}
	svc := NewService(embed, gen, 800, 4, 0.3)

	res, err := svc.Answer(context.Background(), photosynthesisTopic(embed), "Explain photosynthesis step by step.")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !res.FallbackUsed {
		t.Fatalf("fallback should fire: refusal plus relevant question")
	}
	if !strings.Contains(res.Answer, "Photosynthesis is how plants feed themselves.") {
		t.Errorf("answer = %q", res.Answer)
	}
	if !strings.Contains(res.Answer, fallbackDisclaimer) {
		t.Errorf("fallback answer missing disclaimer: %q", res.Answer)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.calls))
	}
	// The second call is unconstrained: bare question, no chunk context.
	if strings.Contains(gen.calls[1][0], "Chunk 1") {
		t.Errorf("fallback prompt should not carry chunk context:\n%s", gen.calls[1][0])
	}
}

func TestAnswerGenerationFailureIsFatal(t *testing.T) {
	embed := fakeEmbedder{axes: []string{"leaf"}}
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewService(embed, gen, 800, 4, 0.3)

	if _, err := svc.Answer(context.Background(), photosynthesisTopic(embed), "anything"); err == nil {
		t.Fatalf("generation failure must fail the request")
	}
}
