package services

import (
	"bytes"
	"fmt"
	"log/slog"

	"rag-tutor-backend/models"

	"github.com/xuri/excelize/v2"
)

// ExportService renders a topic's chunks as an Excel workbook so chapter
// content can be reviewed outside the API.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportTopicExcel returns an XLSX file with one row per chunk.
func (es *ExportService) ExportTopicExcel(topic *models.Topic) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Chunks"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Chunk ID", "Characters", "Embedding Dim", "Text"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, chunk := range topic.Chunks {
		row := rowIdx + 2 // Start from row 2 (after headers)
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), chunk.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), len(chunk.Text))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), len(chunk.Embedding))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), chunk.Text)
	}

	// Summary sheet with topic metadata
	infoSheet := "Topic"
	if _, err := f.NewSheet(infoSheet); err == nil {
		f.SetCellValue(infoSheet, "A1", "ID")
		f.SetCellValue(infoSheet, "B1", topic.ID)
		f.SetCellValue(infoSheet, "A2", "Title")
		f.SetCellValue(infoSheet, "B2", topic.Title)
		f.SetCellValue(infoSheet, "A3", "Chunks")
		f.SetCellValue(infoSheet, "B3", len(topic.Chunks))
		f.SetCellValue(infoSheet, "A4", "Created At")
		f.SetCellValue(infoSheet, "B4", topic.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
