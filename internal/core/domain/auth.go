package domain

import "time"

// OperatorSubject is the token subject issued to the single archive operator.
const OperatorSubject = "operator"

// AuthContext contains authenticated caller info for request context
type AuthContext struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenRequest exchanges the operator key for a bearer token
type TokenRequest struct {
	OperatorKey string `json:"operator_key" example:"s3cret"`
}

// TokenResponse is returned after successful authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks the claims against a reference time
func (c *TokenClaims) IsExpired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}
