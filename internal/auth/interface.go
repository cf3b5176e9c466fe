package auth

import "portal/internal/domain/models"

// TokenVerifier defines the interface for JWT token verification.
// This abstraction keeps the HTTP middleware agnostic to how tokens are
// actually validated.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
