package api

import (
	"net/http"

	"github.com/cankoe/filepulse/internal/deliveries"
	"github.com/cankoe/filepulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RegisterAdminRoutes registers admin-specific routes
func RegisterAdminRoutes(r *gin.Engine, deliveryLog DeliveryLog, adminAPIKey string) {
	adminGroup := r.Group("/admin", APIKeyMiddleware(adminAPIKey, true))
	{
		adminGroup.GET("/deliveries", listDeliveriesHandler(deliveryLog))
		adminGroup.DELETE("/deliveries", deleteDeliveriesHandler(deliveryLog))
	}
}

func listDeliveriesHandler(deliveryLog DeliveryLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, page := getPaginationParams(c)
		filter := deliveries.Filter{
			Kind:    models.DeliveryKind(c.Query("kind")),
			Status:  models.DeliveryStatus(c.Query("status")),
			BatchID: c.Query("batch_id"),
		}

		items, err := deliveryLog.List(c.Request.Context(), filter, page, limit)
		if err != nil {
			respondError(c, storageFailure("Failed to fetch deliveries. Please try again later.", err))
			return
		}
		if items == nil {
			items = []models.Delivery{}
		}

		log.Info().Str("route", "GET /admin/deliveries").Int("count", len(items)).Msg("Deliveries retrieved successfully")
		c.JSON(http.StatusOK, gin.H{"deliveries": items, "page": page, "limit": limit})
	}
}

func deleteDeliveriesHandler(deliveryLog DeliveryLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := deliveryLog.DeleteAll(c.Request.Context())
		if err != nil {
			respondError(c, storageFailure("Failed to delete deliveries.", err))
			return
		}

		log.Info().Str("route", "DELETE /admin/deliveries").Int64("deleted", n).Msg("All deliveries deleted successfully")
		c.JSON(http.StatusOK, gin.H{"message": "All deliveries deleted successfully.", "deleted": n})
	}
}
