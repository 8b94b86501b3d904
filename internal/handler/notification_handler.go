package handler

import (
	"net/http"

	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]services.NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, services.ToNotificationView(n))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(services.ToNotificationView(n)))
}
