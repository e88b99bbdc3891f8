package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// NotificationHandler lets back-office users broadcast to admin sessions.
type NotificationHandler struct {
	publisher ports.Publisher
}

func NewNotificationHandler(publisher ports.Publisher) *NotificationHandler {
	return &NotificationHandler{publisher: publisher}
}

// Broadcast handles POST /v1/notifications.
//
// @Summary      Broadcast a notification to connected admins
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      broadcastRequest  true  "Notification"
// @Success      202   {object}  broadcastResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/notifications [post]
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.publisher.Publish(c.Request().Context(), domain.Notification{
		Type:    domain.NotificationType(req.Type),
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, broadcastResponse{Delivered: true})
}
