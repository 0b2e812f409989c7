package driving

import (
	"context"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// AuthService issues and validates operator tokens
type AuthService interface {
	// Authenticate exchanges the operator key for a token
	Authenticate(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error)

	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Enabled reports whether an operator key is configured
	Enabled() bool
}
