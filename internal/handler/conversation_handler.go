package handler

import (
	"net/http"

	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Resolve answers 201 when the conversation was created and 200 when it already existed.
func (h *ConversationHandler) Resolve(c *gin.Context) {
	var req httpdto.ResolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.Participants))
	for _, idStr := range req.Participants {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid participant id", "INVALID_REQUEST"))
			return
		}
		participantIDs = append(participantIDs, id)
	}

	conv, created, err := h.service.Resolve(c.Request.Context(), actor, req.ReportID, participantIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), actor, c.Query("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}
