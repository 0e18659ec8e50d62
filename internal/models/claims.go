package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims carries the authenticated actor through the HTTP layer. The
// auth service issues them, the middleware validates and extracts them, and
// every service call below gets an explicit actor id.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the claims belong to an admin actor.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
