package middleware

import (
	"strings"

	"lost-persons/internal/services"
	lperrors "lost-persons/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token to an actor and stores it in the request context.
func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			abortWithError(c, lperrors.ErrUnauthorized)
			return
		}

		actor, err := service.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
