package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextTenantID = "tenant_id"
	ContextRole     = "role"
)

// AuthRequired validates the Bearer token and attaches the session
// principal to the request context. Requests without a valid token are
// rejected with Unauthorized before any handler runs.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// GetPrincipal builds the principal for the current request. Empty fields
// mean the request was not authenticated.
func GetPrincipal(c *gin.Context) authz.Principal {
	return authz.Principal{
		UserID:   c.GetString(ContextUserID),
		TenantID: c.GetString(ContextTenantID),
		Role:     c.GetString(ContextRole),
	}
}
