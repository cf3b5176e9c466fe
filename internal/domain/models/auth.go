package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string `json:"role"` // "authenticated" or "anon"
	SessionID            string `json:"session_id"`
	IsAnonymous          bool   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// User is the identity half of a session. The role is NOT part of the
// identity token; it is resolved separately from the profiles table and
// can lag behind identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token bundle returned by the auth collaborator's
// password grant and sign-up endpoints.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}
