// internal/api/middleware.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/auth"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
	ctxClaims = "claims"
)

// AuthMiddleware verifies the bearer token and stashes the caller's identity
// on the request context.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondErrorMessage(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization token")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			respondErrorMessage(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireAdmin rejects non-administrator callers. It must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxRole)
		if !ok || role.(models.UserRole) != models.RoleAdmin {
			respondErrorMessage(c, http.StatusForbidden, "FORBIDDEN", "administrator access required")
			return
		}
		c.Next()
	}
}

// RequireSubscriber gates premium content. Admins pass, everyone else needs
// an active paid plan. Requires a user lookup because subscription state can
// change after a token was issued.
func RequireSubscriber(h *Handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		role, _ := c.Get(ctxRole)
		if role == models.RoleAdmin {
			c.Next()
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			respondErrorMessage(c, http.StatusUnauthorized, "UNAUTHORIZED", "account not found")
			return
		}
		if !user.HasActiveSubscription(time.Now()) {
			respondErrorMessage(c, http.StatusForbidden, "SUBSCRIPTION_REQUIRED", "an active subscription is required for this content")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Token query fallback for EventSource and websocket clients, which
	// cannot set headers.
	return c.Query("token")
}

func currentUserID(c *gin.Context) uint {
	id, _ := c.Get(ctxUserID)
	userID, _ := id.(uint)
	return userID
}
