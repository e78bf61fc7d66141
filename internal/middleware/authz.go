package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

func RequireRoles(allowed ...models.UserRole) gin.HandlerFunc {
	allowedSet := map[models.UserRole]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		role, _ := v.(models.UserRole)
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
