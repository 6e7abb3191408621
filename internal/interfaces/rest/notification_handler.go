package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexflow/backend/internal/application/services"
	appErrors "github.com/lexflow/backend/pkg/errors"
)

// NotificationHandler handles notification API endpoints
type NotificationHandler struct {
	svc *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GetNotifications handles GET /api/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	actor := GetActorFromContext(c)
	if actor == nil {
		RespondAppError(c, appErrors.NewUnauthorizedError("not authenticated"))
		return
	}

	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.GetForRecipient(c.Request.Context(), actor.Name), nil
	})
}

// MarkAsRead handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.MarkAsRead(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"success": true}})
}
