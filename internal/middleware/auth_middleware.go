// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"storefront-service/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"

	AccessTokenCookie = "access_token"
)

// TokenValidator lo implementa service.AuthService.
type TokenValidator interface {
	ValidateToken(token string) (model.Identity, error)
}

// extractToken prioriza la cookie y después el header Authorization.
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Middleware que valida el token y guarda la identidad en el contexto
func AuthMiddleware(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := v.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, id.UserID)
		c.Set(ctxUserRole, id.Role)
		c.Next()
	}
}

// IdentityFrom lee la identidad que dejó AuthMiddleware. Vacía si no pasó por él.
func IdentityFrom(c *gin.Context) model.Identity {
	return model.Identity{
		UserID: c.GetString(ctxUserID),
		Role:   c.GetString(ctxUserRole),
	}
}
