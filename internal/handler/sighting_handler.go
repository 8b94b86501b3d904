package handler

import (
	"net/http"

	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type SightingHandler struct {
	service *services.SightingService
}

func NewSightingHandler(service *services.SightingService) *SightingHandler {
	return &SightingHandler{service: service}
}

func (h *SightingHandler) Create(c *gin.Context) {
	var req httpdto.SightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	view, err := h.service.Create(c.Request.Context(), actor, c.Param("id"), services.SightingInput{
		Description: req.Description,
		DateTime:    req.DateTime,
		Address:     req.Address,
		Coordinates: toPoint(req.Coordinates),
		Photos:      req.Photos,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

func (h *SightingHandler) List(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *SightingHandler) Update(c *gin.Context) {
	var req httpdto.UpdateSightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	view, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), services.SightingPatch{
		Description: req.Description,
		DateTime:    req.DateTime,
		Address:     req.Address,
		Coordinates: toPoint(req.Coordinates),
		Photos:      req.Photos,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *SightingHandler) SetStatus(c *gin.Context) {
	var req httpdto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	view, err := h.service.SetStatus(c.Request.Context(), actor, c.Param("id"), sighting.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}
