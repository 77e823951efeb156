package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
	"github.com/noah-isme/campus-sis-api/pkg/response"
)

// RequireRoles lets the request through when the caller holds any of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !models.HasAnyOf(claims.Roles, roles...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
