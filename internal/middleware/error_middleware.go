package middleware

import (
	"net/http"

	"lost-persons/internal/transport/httpdto"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler logs errors attached with c.Error and renders the last one when the
// handler wrote no body. Server errors reach the client as a generic message.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := lperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError && l != nil {
			l.Ctx(c.Request.Context()).Error("request error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		}
		if c.Writer.Written() {
			return
		}
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		c.JSON(status, httpdto.NewErrorResponse(msg, lperrors.Code(err)))
	}
}

// Recovery turns panics into an opaque 500 and logs the panic value.
func Recovery(l *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if l != nil {
			l.Ctx(c.Request.Context()).Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
	})
}

func abortWithError(c *gin.Context, err error) {
	status := lperrors.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, httpdto.NewErrorResponse(msg, lperrors.Code(err)))
}
