package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
	"github.com/intransparency/platform-api/pkg/response"
)

// RBAC enforces role-based access control. Admins are never implicitly
// allowed; list every permitted role explicitly.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
