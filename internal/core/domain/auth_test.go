package domain

import (
	"testing"
	"time"
)

func TestTokenClaimsIsExpired(t *testing.T) {
	now := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"expired", now.Add(-time.Hour), true},
		{"valid", now.Add(time.Hour), false},
		{"expires now", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &TokenClaims{Subject: OperatorSubject, ExpiresAt: tt.expiresAt.Unix()}
			if claims.IsExpired(now) != tt.expected {
				t.Errorf("expected IsExpired() = %v", tt.expected)
			}
		})
	}
}
