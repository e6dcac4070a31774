package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// Gin context keys set by RequireAuth.
const (
	ContextUserKey  = "auth_user"
	ContextTokenKey = "auth_token"
)

// RequireAuth returns a middleware that validates the Authorization
// bearer token against the identity service and stores the resolved
// user on the request context. Requests without a valid token get 401.
func RequireAuth(verifier identity.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or malformed authorization header",
			})
			return
		}

		user, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Token verification failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, token)
		c.Request = c.Request.WithContext(logger.SetUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// CurrentToken returns the raw bearer token set by RequireAuth.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
