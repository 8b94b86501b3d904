package handler

import (
	"net/http"

	"lost-persons/internal/domain/report"
	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req httpdto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	in := services.ReportInput{
		ReportCode: req.ReportID,
		Name:       req.Name,
		Age:        req.Age,
		Phone:      req.Phone,
		Gender:     report.Gender(req.Gender),
		LastSeen: services.LastSeenInput{
			Address:     req.LastSeen.Address,
			Coordinates: toPoint(req.LastSeen.Coordinates),
		},
		Description:        req.Description,
		Photos:             req.Photos,
		Videos:             req.Videos,
		Weight:             req.Weight,
		Height:             req.Height,
		HairColor:          req.HairColor,
		EyeColor:           req.EyeColor,
		Markup:             req.Markup,
		SkinColor:          req.SkinColor,
		PoliceReportNumber: req.PoliceReportNumber,
		Bonus:              req.Bonus,
	}
	if req.LastSeen.DateTime != nil {
		in.LastSeen.DateTime = req.LastSeen.DateTime.UTC()
	}

	view, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

func (h *ReportHandler) List(c *gin.Context) {
	var q httpdto.ListReportsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), actor, services.ListReportsInput{
		Name:   q.Name,
		AgeMin: q.AgeMin,
		AgeMax: q.AgeMax,
		Gender: report.Gender(q.Gender),
		Mine:   q.Mine,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(page))
}

func (h *ReportHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ReportHandler) Update(c *gin.Context) {
	var req httpdto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	patch := services.ReportPatch{
		Name:               req.Name,
		Age:                req.Age,
		Phone:              req.Phone,
		Description:        req.Description,
		Photos:             req.Photos,
		Videos:             req.Videos,
		Weight:             req.Weight,
		Height:             req.Height,
		HairColor:          req.HairColor,
		EyeColor:           req.EyeColor,
		Markup:             req.Markup,
		SkinColor:          req.SkinColor,
		PoliceReportNumber: req.PoliceReportNumber,
		Bonus:              req.Bonus,
	}
	if req.Gender != nil {
		g := report.Gender(*req.Gender)
		patch.Gender = &g
	}
	if req.LastSeen != nil {
		if req.LastSeen.DateTime != nil {
			seen := req.LastSeen.DateTime.UTC()
			patch.LastSeenDateTime = &seen
		}
		if req.LastSeen.Address != "" {
			patch.LastSeenAddress = &req.LastSeen.Address
		}
		patch.Coordinates = toPoint(req.LastSeen.Coordinates)
	}

	view, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ReportHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessageResponse{Message: "report deleted"}))
}

func (h *ReportHandler) SetStatus(c *gin.Context) {
	var req httpdto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	view, err := h.service.SetStatus(c.Request.Context(), actor, c.Param("id"), report.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ReportHandler) PostUpdate(c *gin.Context) {
	var req httpdto.PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	view, err := h.service.PostUpdate(c.Request.Context(), actor, c.Param("id"), req.Content, req.IsOfficial)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

func (h *ReportHandler) ListUpdates(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, err := h.service.ListUpdates(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}
