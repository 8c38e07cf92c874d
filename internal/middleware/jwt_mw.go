package middleware

import (
	"errors"
	"net/http"
	"strings"

	"library_management/internal/model"
	"library_management/internal/service"

	"github.com/gin-gonic/gin"
)

const AuthUserKey = "authUser"

// JWTAuthMiddleware resolves the bearer token to the current account and
// stores it in the context under AuthUserKey.
func JWTAuthMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "No token, authorization denied", "missing authorization header")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format", "expected Bearer token")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			var se *service.Error
			if errors.As(err, &se) && errors.Is(err, service.ErrUnauthorized) {
				abort(c, http.StatusUnauthorized, se.Message, se.Kind.Error())
				return
			}
			abort(c, http.StatusInternalServerError, "Server Error", err.Error())
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account set by JWTAuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func abort(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "error": detail})
}
