package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from uploaded PDF files.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractionResult contains the result of PDF text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	QualityScore   float64
	ProcessingTime time.Duration
	WordCount      int
	CharacterCount int
}

// ExtractText extracts the full text of the PDF at filePath. Extraction of
// a single page may fail without failing the document; a document where no
// page yields text is an error.
func (e *PDFExtractor) ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error) {
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return nil, fmt.Errorf("context deadline exceeded before extraction")
		}
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if stat.Size() > 200<<20 { // 200MB safety cap
		return nil, fmt.Errorf("pdf too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			slog.Warn("Failed to extract text from page", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extractedText := textBuilder.String()
	if strings.TrimSpace(extractedText) == "" {
		return nil, fmt.Errorf("no text extracted from pdf")
	}

	result := &ExtractionResult{
		Text:           extractedText,
		Pages:          pages,
		QualityScore:   evaluateTextQuality(extractedText),
		ProcessingTime: time.Since(start),
	}

	words := strings.Fields(extractedText)
	result.WordCount = len(words)
	result.CharacterCount = len(extractedText)

	return result, nil
}

// evaluateTextQuality scores extracted text in [0,1]: mostly printable,
// mostly alphanumeric text scores high; replacement characters and other
// corruption markers pull the score down.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		default:
			printable++
		}
	}

	total := len([]rune(text))
	score := float64(printable)/float64(total)*0.5 + 0.1

	if ratio := float64(alphanumeric) / float64(total); ratio >= 0.3 {
		score += 0.3
	} else {
		score += ratio
	}

	score -= float64(corrupted) / float64(total) * 2.0

	if len(text) > 100 {
		score += 0.1
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
