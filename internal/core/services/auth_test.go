package services

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven/mocks"
)

func newTestAuthService(t *testing.T, key string) (*mocks.MockAuthAdapter, *authService) {
	t.Helper()
	authAdapter := mocks.NewMockAuthAdapter()
	svc, err := NewAuthService(authAdapter, key)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return authAdapter, svc.(*authService)
}

func TestAuthService_Authenticate(t *testing.T) {
	_, svc := newTestAuthService(t, "s3cret")

	tests := []struct {
		name    string
		req     domain.TokenRequest
		wantErr error
	}{
		{
			name:    "valid key",
			req:     domain.TokenRequest{OperatorKey: "s3cret"},
			wantErr: nil,
		},
		{
			name:    "empty key",
			req:     domain.TokenRequest{OperatorKey: ""},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "wrong key",
			req:     domain.TokenRequest{OperatorKey: "guess"},
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Authenticate(context.Background(), tt.req)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if resp.Token == "" {
				t.Error("expected token")
			}
			if time.Until(resp.ExpiresAt) < 23*time.Hour {
				t.Errorf("expected ~24h expiry, got %v", resp.ExpiresAt)
			}
		})
	}
}

func TestAuthService_Disabled(t *testing.T) {
	_, svc := newTestAuthService(t, "")

	if svc.Enabled() {
		t.Error("expected auth to be disabled without a key")
	}
	_, err := svc.Authenticate(context.Background(), domain.TokenRequest{OperatorKey: "anything"})
	if err != domain.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	_, svc := newTestAuthService(t, "s3cret")
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, domain.TokenRequest{OperatorKey: "s3cret"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	authCtx, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.Subject != domain.OperatorSubject {
		t.Errorf("expected subject %q, got %q", domain.OperatorSubject, authCtx.Subject)
	}
	if authCtx.ExpiresAt.Unix() != resp.ExpiresAt.Unix() {
		t.Errorf("expected expiry %v, got %v", resp.ExpiresAt, authCtx.ExpiresAt)
	}
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	authAdapter, svc := newTestAuthService(t, "s3cret")
	ctx := context.Background()

	if _, err := svc.ValidateToken(ctx, ""); err != domain.ErrTokenInvalid {
		t.Errorf("empty token: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.ValidateToken(ctx, "not-base64!"); err != domain.ErrTokenInvalid {
		t.Errorf("garbage token: expected ErrTokenInvalid, got %v", err)
	}

	foreign, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   "someone-else",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if _, err := svc.ValidateToken(ctx, foreign); err != domain.ErrTokenInvalid {
		t.Errorf("foreign subject: expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	_, svc := newTestAuthService(t, "s3cret")
	ctx := context.Background()

	issued := time.Now().Add(-48 * time.Hour)
	svc.now = func() time.Time { return issued }
	resp, err := svc.Authenticate(ctx, domain.TokenRequest{OperatorKey: "s3cret"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(ctx, resp.Token); err != domain.ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
