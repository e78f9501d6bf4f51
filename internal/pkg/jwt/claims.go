// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"` // admin, employee
	jwt.RegisteredClaims
}

// HasRole checks if the claims carry a specific role
func (c *Claims) HasRole(role string) bool {
	return c.Role == role
}

// IsAdmin checks if user is an admin
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}
