package apihttp

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"gridsim/internal/gateway/identity"
	"gridsim/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	adminTokenHeader = "X-Admin-Token"
	userContextKey   = "identity_user"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Verify(ctx context.Context, token string) (identity.User, error)
}

// requireAuth rejects requests without a verified bearer token. A nil
// authenticator lets everything through.
func requireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.Next()
			return
		}
		token, ok := identity.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token"})
			return
		}
		user, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				logger.Warnf("[http] identity check failed: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireAdmin guards privileged routes with a static operator token. With no
// token configured the routes are closed.
func requireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin operations disabled"})
			return
		}
		got := c.GetHeader(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin token"})
			return
		}
		c.Next()
	}
}
