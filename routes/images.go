package routes

import (
	"net/http"
	"path"

	"rag-tutor-backend/internal/images"
	"rag-tutor-backend/models"
	"rag-tutor-backend/utils"

	"github.com/gin-gonic/gin"
)

// SetupImageRoutes registers catalog lookup endpoints.
func SetupImageRoutes(router *gin.Engine, store *images.Store) {
	router.GET("/images/:topicId", func(c *gin.Context) {
		if !store.Ready() {
			utils.RespondWithError(c, http.StatusServiceUnavailable, "catalog_unavailable",
				"Image catalog is not loaded", nil)
			return
		}

		assets := store.ByTopic(c.Param("topicId"))
		out := make([]models.ImageResponse, 0, len(assets))
		for _, a := range assets {
			out = append(out, models.ImageResponse{
				ID:          a.ID,
				Title:       a.Title,
				URL:         path.Join("/static/images", a.Filename),
				Description: a.Description,
			})
		}
		c.JSON(http.StatusOK, gin.H{"images": out})
	})
}
