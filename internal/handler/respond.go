// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"

	"lost-persons/internal/domain/report"
	"lost-persons/internal/proxy"
	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"
	lperrors "lost-persons/pkg/errors"

	"github.com/gin-gonic/gin"
)

// writeError renders a service error. Server errors are attached to the context for
// logging and reach the client as a generic message.
func writeError(c *gin.Context, err error) {
	status := lperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, httpdto.NewErrorResponse("internal server error", lperrors.Code(err)))
		return
	}
	c.AbortWithStatusJSON(status, httpdto.NewErrorResponse(err.Error(), lperrors.Code(err)))
}

func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
}

// currentActor writes 401 when the route was not behind the auth middleware.
func currentActor(c *gin.Context) (proxy.Actor, bool) {
	actor, ok := services.ActorFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	}
	return actor, ok
}

func toPoint(coords []float64) *report.Point {
	if len(coords) != 2 {
		return nil
	}
	return &report.Point{Longitude: coords[0], Latitude: coords[1]}
}
