package routes

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"rag-tutor-backend/internal/config"
	"rag-tutor-backend/internal/queue"
	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/telemetry"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/models"
	"rag-tutor-backend/services"
	"rag-tutor-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SetupTopicRoutes registers document upload and topic browsing endpoints.
func SetupTopicRoutes(
	router *gin.Engine,
	cfg *config.Config,
	extractor *services.PDFExtractor,
	ragService *rag.Service,
	repo *topics.Repository,
	storage *services.FileStorageManager,
	exporter *services.ExportService,
	queueClient *asynq.Client,
	metrics *telemetry.Metrics,
) {
	router.POST("/upload", handleUpload(cfg, extractor, ragService, repo, storage, queueClient, metrics))

	router.GET("/topics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"topics": repo.List()})
	})

	router.GET("/topics/:id", func(c *gin.Context) {
		topic, err := repo.Get(c.Param("id"))
		if err != nil {
			if errors.Is(err, topics.ErrUnknownTopic) || errors.Is(err, topics.ErrInvalidTopicID) {
				utils.RespondWithNotFound(c, "Topic not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load topic", nil)
			return
		}
		c.JSON(http.StatusOK, topic)
	})

	router.GET("/topics/:id/export", func(c *gin.Context) {
		topic, err := repo.Get(c.Param("id"))
		if err != nil {
			if errors.Is(err, topics.ErrUnknownTopic) || errors.Is(err, topics.ErrInvalidTopicID) {
				utils.RespondWithNotFound(c, "Topic not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load topic", nil)
			return
		}

		data, err := exporter.ExportTopicExcel(topic)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		filename := fmt.Sprintf("topic_%s.xlsx", topic.ID)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})
}

// titleFromFilename derives a default topic title from the uploaded file
// name, dropping the .pdf extension whatever its case.
func titleFromFilename(name string) string {
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func handleUpload(
	cfg *config.Config,
	extractor *services.PDFExtractor,
	ragService *rag.Service,
	repo *topics.Repository,
	storage *services.FileStorageManager,
	queueClient *asynq.Client,
	metrics *telemetry.Metrics,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("pdf")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file",
				"No PDF file provided", nil)
			return
		}
		defer file.Close()

		if err := storage.ValidateUpload(header); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file", err.Error(), nil)
			return
		}

		title := strings.TrimSpace(c.PostForm("title"))
		if title == "" {
			title = titleFromFilename(header.Filename)
		}

		topicID := strings.TrimSpace(c.PostForm("topic_id"))
		if topicID == "" {
			topicID = uuid.NewString()
		} else if !topics.ValidID(topicID) {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_topic_id",
				"Topic id may only contain letters, digits, '-' and '_'", nil)
			return
		}

		// Small files are indexed inline so the caller gets a ready topic.
		// Larger ones are staged and handed to the worker.
		if header.Size <= cfg.SyncProcessingLimit {
			filePath, err := storage.StoreTemp(file)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to save file", nil)
				return
			}
			defer storage.Remove(filePath)

			start := time.Now()
			result, err := extractor.ExtractText(c.Request.Context(), filePath)
			if err != nil {
				metrics.RecordIngestion(time.Since(start).Seconds(), "error")
				utils.RespondWithError(c, http.StatusBadRequest, "extraction_failed",
					"Could not extract text from PDF", gin.H{"error": err.Error()})
				return
			}

			topic, err := ragService.BuildTopic(c.Request.Context(), topicID, title, result.Text)
			if err != nil {
				metrics.RecordIngestion(time.Since(start).Seconds(), "error")
				if errors.Is(err, rag.ErrEmptyCorpus) {
					utils.RespondWithError(c, http.StatusBadRequest, "empty_document",
						"The document contains no extractable text", nil)
					return
				}
				utils.RespondWithInternalError(c, "Failed to index document", nil)
				return
			}

			if err := repo.Put(topic); err != nil {
				metrics.RecordIngestion(time.Since(start).Seconds(), "error")
				utils.RespondWithInternalError(c, "Failed to persist topic", nil)
				return
			}
			metrics.RecordIngestion(time.Since(start).Seconds(), "success")

			c.JSON(http.StatusOK, models.UploadResponse{
				TopicID:    topic.ID,
				Title:      topic.Title,
				ChunkCount: len(topic.Chunks),
				Status:     models.StatusCompleted,
			})
			return
		}

		filePath, err := storage.StoreForTask(file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to save file", nil)
			return
		}

		task, err := queue.NewIngestTask(topicID, title, filePath)
		if err != nil {
			storage.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to create processing task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			storage.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to enqueue processing task", nil)
			return
		}

		c.JSON(http.StatusAccepted, models.UploadResponse{
			TopicID: topicID,
			Title:   title,
			Status:  models.StatusProcessing,
			TaskID:  info.ID,
		})
	}
}
