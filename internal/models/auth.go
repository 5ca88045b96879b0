package models

import "github.com/golang-jwt/jwt/v5"

// TokenTypeAccess is the only token type issued.
const TokenTypeAccess = "access"

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
