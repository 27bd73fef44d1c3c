package rag

import "strings"

// DefaultMaxChunkSize bounds chunk length in characters when no explicit
// limit is configured.
const DefaultMaxChunkSize = 800

// ChunkText splits text into sentence-respecting chunks of at most maxChars
// characters. A sentence boundary is the position after one of ". ! ?"
// followed by whitespace; the whitespace is consumed as the separator.
// Sentences are accumulated greedily, and a single sentence longer than
// maxChars is kept whole in its own chunk rather than split mid-sentence.
// Empty input yields no chunks.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkSize
	}

	sentences := splitSentences(text)

	var chunks []string
	current := ""
	for _, s := range sentences {
		if len(current)+1+len(s) > maxChars {
			if strings.TrimSpace(current) != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			current = s
		} else if current == "" {
			current = s
		} else {
			current += " " + s
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace. The trailing run of whitespace is dropped; everything else,
// including the punctuation, is preserved.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(text) {
		if isTerminal(text[i]) {
			j := i + 1
			if j < len(text) && isSpace(text[j]) {
				sentences = append(sentences, text[start:j])
				for j < len(text) && isSpace(text[j]) {
					j++
				}
				start = j
				i = j
				continue
			}
		}
		i++
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
