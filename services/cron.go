package services

import (
	"log/slog"
	"time"

	"rag-tutor-backend/internal/config"

	"github.com/go-co-op/gocron"
)

// CronService runs periodic housekeeping: reaping expired temp upload
// files so abandoned uploads do not accumulate on disk.
type CronService struct {
	scheduler *gocron.Scheduler
	storage   *FileStorageManager
	tempTTL   time.Duration
}

func NewCronService(cfg *config.Config, storage *FileStorageManager) *CronService {
	return &CronService{
		scheduler: gocron.NewScheduler(time.UTC),
		storage:   storage,
		tempTTL:   time.Duration(cfg.TempFileTTLMinutes) * time.Minute,
	}
}

func (c *CronService) Start() error {
	_, err := c.scheduler.Every(15).Minutes().Do(func() {
		removed, err := c.storage.CleanupTempFiles(c.tempTTL)
		if err != nil {
			slog.Warn("Temp file cleanup failed", "error", err)
			return
		}
		if removed > 0 {
			slog.Info("Temp files cleaned up", "removed", removed)
		}
	})
	if err != nil {
		return err
	}

	c.scheduler.StartAsync()
	slog.Info("Cleanup scheduler started", "temp_ttl", c.tempTTL.String())
	return nil
}

func (c *CronService) Stop() {
	c.scheduler.Stop()
}
