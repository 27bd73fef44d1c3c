package rag

import (
	"strings"
	"testing"
)

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("", 800); len(got) != 0 {
		t.Fatalf("empty input produced %d chunks, want 0", len(got))
	}
	if got := ChunkText("   \n\t ", 800); len(got) != 0 {
		t.Fatalf("whitespace input produced %d chunks, want 0", len(got))
	}
}

func TestChunkTextSingleChunkUnderLimit(t *testing.T) {
	text := "The sky is blue. Water is wet. Fire is hot."
	got := ChunkText(text, 800)
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want %q", got[0], text)
	}
}

func TestChunkTextRespectsMaxChars(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This is a short sentence about something. ")
	}
	chunks := ChunkText(sb.String(), 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d has %d chars, exceeds limit 200", i, len(c))
		}
	}
}

func TestChunkTextOversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 60) + "end."
	text := "Short one. " + long + " Another short one."
	chunks := ChunkText(text, 100)

	found := false
	for _, c := range chunks {
		if c == long {
			found = true
		}
	}
	if !found {
		t.Errorf("over-length sentence was split; chunks: %q", chunks)
	}
}

func TestChunkTextPartitionByConcatenation(t *testing.T) {
	text := "One fish. Two fish! Red fish? Blue fish. " +
		"Some longer sentence that talks about several different things at once. Short."
	chunks := ChunkText(text, 60)

	rejoined := strings.Join(chunks, " ")
	normalized := strings.Join(strings.Fields(text), " ")
	if rejoined != normalized {
		t.Errorf("rejoined chunks = %q, want %q", rejoined, normalized)
	}
}

func TestChunkTextBoundaryRequiresWhitespace(t *testing.T) {
	// "3.14" must not be treated as a sentence boundary.
	text := "Pi is roughly 3.14 in most textbooks. It is irrational."
	chunks := ChunkText(text, 45)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != "Pi is roughly 3.14 in most textbooks." {
		t.Errorf("first chunk = %q", chunks[0])
	}
}
