package middleware

import (
	"net/http"

	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on a {resource, action} pair resolved
// against the session role's stored permission map.
func RequirePermission(roleRepo *repository.RoleRepository, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName := GetRole(c)
		if roleName == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		role, err := roleRepo.GetByName(roleName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		if !role.HasPermission(resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
