package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

// JwtClaims are the claims carried by tokens from the external auth service.
// This backend only validates tokens and reads the role claim; it never
// issues them.
type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
