package auth

import (
	"errors"
	"testing"
	"time"

	"evewspace/sitetracker/internal/constants"
	gormModels "evewspace/sitetracker/internal/models/gorm"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("0123456789abcdef"), time.Hour)

	token, expiresAt, err := svc.Issue("user-1", "alice", []string{constants.PermSiteTracker})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expected expiry in the future")
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Username() != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.HasPermission(constants.PermSiteTracker) {
		t.Error("expected sitetracker permission")
	}
	if claims.HasPermission(constants.PermAdmin) {
		t.Error("did not expect admin permission")
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService([]byte("0123456789abcdef"), time.Hour)
	other := NewTokenService([]byte("fedcba9876543210"), time.Hour)

	foreign, _, err := other.Issue("user-1", "alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := NewTokenService([]byte("0123456789abcdef"), time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("user-1", "alice", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      old,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestPermissionsFor(t *testing.T) {
	tests := []struct {
		name string
		user gormModels.User
		want bool
	}{
		{"active tracker user", gormModels.User{IsActive: true, CanSiteTracker: true}, true},
		{"active without permission", gormModels.User{IsActive: true}, false},
		{"inactive", gormModels.User{CanSiteTracker: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := MakeClaimsFromApi(&tt.user)
			if got := claims.HasPermission(constants.PermSiteTracker); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
