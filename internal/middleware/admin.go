package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
)

// AdminRequired gates the admin route group on the token's role claim. The
// admin action processor re-checks the role against the user store before
// touching any withdrawal state.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role.(string) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
