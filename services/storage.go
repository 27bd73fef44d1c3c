package services

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rag-tutor-backend/internal/config"

	"github.com/google/uuid"
)

// FileStorageManager owns the directories where uploaded PDFs are staged.
// Files under the uploads dir belong to queued ingestion tasks; everything
// else lives in temp and is reaped after its TTL.
type FileStorageManager struct {
	uploadDir string
	tempDir   string
	maxSize   int64
}

func NewFileStorageManager(cfg *config.Config) (*FileStorageManager, error) {
	baseDir := cfg.FileStorageDir
	if baseDir == "" {
		baseDir = "./storage"
	}

	uploadDir := filepath.Join(baseDir, "uploads")
	tempDir := filepath.Join(baseDir, "temp")

	for _, dir := range []string{uploadDir, tempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}

	return &FileStorageManager{
		uploadDir: uploadDir,
		tempDir:   tempDir,
		maxSize:   cfg.MaxFileSize,
	}, nil
}

// ValidateUpload rejects files that are too large or not PDFs before any
// bytes are written.
func (m *FileStorageManager) ValidateUpload(header *multipart.FileHeader) error {
	if header.Size == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if header.Size > m.maxSize {
		return fmt.Errorf("file size %d exceeds limit %d", header.Size, m.maxSize)
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return fmt.Errorf("only PDF uploads are supported")
	}
	return nil
}

// StoreTemp writes the uploaded file under the temp dir with a random
// name and returns its path. Sync ingestion removes the file itself; the
// cleanup job reaps anything left behind.
func (m *FileStorageManager) StoreTemp(file multipart.File) (string, error) {
	return m.store(file, m.tempDir)
}

// StoreForTask writes the uploaded file under the uploads dir, where it
// stays until the ingestion worker has consumed it.
func (m *FileStorageManager) StoreForTask(file multipart.File) (string, error) {
	return m.store(file, m.uploadDir)
}

func (m *FileStorageManager) store(file multipart.File, dir string) (string, error) {
	name := uuid.NewString() + ".pdf"
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// Remove deletes a staged file; a missing file is not an error.
func (m *FileStorageManager) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove staged file", "path", path, "error", err)
	}
}

// CleanupTempFiles removes temp files older than ttl and returns how many
// were removed.
func (m *FileStorageManager) CleanupTempFiles(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp dir: %w", err)
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.tempDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
