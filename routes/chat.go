package routes

import (
	"errors"
	"net/http"
	"path"

	"rag-tutor-backend/internal/config"
	"rag-tutor-backend/internal/images"
	"rag-tutor-backend/internal/rag"
	"rag-tutor-backend/internal/telemetry"
	"rag-tutor-backend/internal/topics"
	"rag-tutor-backend/models"
	"rag-tutor-backend/services"
	"rag-tutor-backend/utils"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes registers the question answering endpoint.
func SetupChatRoutes(
	router *gin.Engine,
	cfg *config.Config,
	ragService *rag.Service,
	repo *topics.Repository,
	imageStore *images.Store,
	cache *services.AnswerCache,
	metrics *telemetry.Metrics,
) {
	router.POST("/chat", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		topic, err := repo.Get(req.TopicID)
		if err != nil {
			if errors.Is(err, topics.ErrUnknownTopic) || errors.Is(err, topics.ErrInvalidTopicID) {
				utils.RespondWithNotFound(c, "Topic not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load topic", nil)
			return
		}

		ctx := c.Request.Context()

		result := cache.Get(ctx, topic.ID, req.Question)
		if result == nil {
			result, err = ragService.Answer(ctx, topic, req.Question)
			if err != nil {
				utils.RespondWithBadGateway(c, "The answer service is temporarily unavailable")
				return
			}
			cache.Put(ctx, topic.ID, req.Question, result)
		}

		if result.FallbackUsed {
			metrics.RecordFallback(topic.ID)
		}

		// Image matching uses both question and answer so the picked
		// illustration follows what was actually discussed.
		var image *models.ImageResponse
		if asset := imageStore.BestMatch(ctx, req.Question+"\n\n"+result.Answer, cfg.ImageCategory); asset != nil {
			image = &models.ImageResponse{
				ID:          asset.ID,
				Title:       asset.Title,
				URL:         path.Join("/static/images", asset.Filename),
				Description: asset.Description,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"answer": result.Answer,
			"image":  image,
			"meta": gin.H{
				"topic_id":      topic.ID,
				"used_chunks":   result.UsedChunks,
				"fallback_used": result.FallbackUsed,
			},
		})
	})
}
