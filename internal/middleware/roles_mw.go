package middleware

import (
	"net/http"

	"library_management/internal/model"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits callers whose role ranks at least min.
func RoleMiddleware(min model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "Not authenticated", "user not found in context, ensure JWT middleware runs first")
			return
		}
		if !user.Role.AtLeast(min) {
			abort(c, http.StatusForbidden, "Access denied", "requires role "+string(min))
			return
		}
		c.Next()
	}
}

// CapabilityMiddleware admits callers whose role grants cap.
func CapabilityMiddleware(cap model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "Not authenticated", "user not found in context, ensure JWT middleware runs first")
			return
		}
		if !user.Role.Can(cap) {
			abort(c, http.StatusForbidden, "Access denied", "missing capability "+string(cap))
			return
		}
		c.Next()
	}
}

// AdminMiddleware checks if the user is an admin or super-admin
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}

// SuperAdminMiddleware checks if the user is a super-admin
func SuperAdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleSuperAdmin)
}
