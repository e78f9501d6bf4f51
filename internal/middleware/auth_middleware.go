// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"strings"

	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/jwt"
	"crm-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextClaimsKey = "auth_claims"
	ContextUserIDKey = "auth_user_id"
)

// TokenValidator verifies a bearer token and returns its claims.
// Implemented by the auth service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// Auth extracts and validates the Authorization bearer token, storing the
// claims in the request context for handlers.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header")
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, xerrors.ErrSessionExpired) {
				response.Unauthorized(c, "session expired")
				return
			}
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry one of the
// allowed roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			response.Unauthorized(c, "authentication required")
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
	}
}

// ClaimsFrom returns the authenticated claims, nil when absent.
func ClaimsFrom(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserIDFrom returns the authenticated user's ID, 0 when absent.
func UserIDFrom(c *gin.Context) int64 {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.UserID
	}
	return 0
}
