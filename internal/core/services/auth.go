package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is how long an operator token stays valid
const DefaultTokenTTL = 24 * time.Hour

// authService implements the AuthService interface.
// There is a single operator identified by a shared key; the key is held
// only as a hash.
type authService struct {
	authAdapter driven.AuthAdapter
	keyHash     string
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewAuthService creates a new AuthService. An empty operator key disables
// authentication.
func NewAuthService(authAdapter driven.AuthAdapter, operatorKey string) (driving.AuthService, error) {
	s := &authService{
		authAdapter: authAdapter,
		tokenTTL:    DefaultTokenTTL,
		now:         time.Now,
	}
	if operatorKey == "" {
		return s, nil
	}

	hash, err := authAdapter.HashKey(operatorKey)
	if err != nil {
		return nil, err
	}
	s.keyHash = hash
	return s, nil
}

// Enabled reports whether an operator key is configured
func (s *authService) Enabled() bool {
	return s.keyHash != ""
}

// Authenticate exchanges the operator key for a signed token
func (s *authService) Authenticate(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	if !s.Enabled() || req.OperatorKey == "" {
		return nil, domain.ErrUnauthorized
	}
	if !s.authAdapter.VerifyKey(req.OperatorKey, s.keyHash) {
		return nil, domain.ErrUnauthorized
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &domain.TokenClaims{
		Subject:   domain.OperatorSubject,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if claims.IsExpired(s.now()) {
		return nil, domain.ErrTokenExpired
	}
	if claims.Subject != domain.OperatorSubject {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		Subject:   claims.Subject,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}
