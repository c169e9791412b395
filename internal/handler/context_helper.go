package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/middleware"
	"github.com/campushub/portal-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// viewerFromContext projects context claims onto the viewer shape. Nil when
// the request is unauthenticated.
func viewerFromContext(c *gin.Context) *models.Viewer {
	return claimsFromContext(c).Viewer()
}
