package auth

import (
	"testing"
	"time"

	"leadmarket-platform/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		JWTIssuer:       "leadmarket",
		JWTAudience:     "leadmarket-api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssuePair_AccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	pair, err := m.IssuePair(now, Identity{UserID: "user-1", CompanyID: "company-a", Role: "provider"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id := claims.Identity()
	if id.UserID != "user-1" || id.CompanyID != "company-a" || id.Role != "provider" {
		t.Fatalf("identity mismatch: %+v", id)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject should carry the user id, got %q", claims.Subject)
	}
	if id.IsPlatformStaff() {
		t.Fatalf("provider identity flagged as platform staff")
	}
}

func TestIssuePair_RefreshTokenCarriesNoRole(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	pair, err := m.IssuePair(now, Identity{UserID: "user-1", CompanyID: "company-a", Role: "owner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(pair.RefreshToken, TokenTypeRefresh, now)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if claims.Role != "" {
		t.Fatalf("refresh token should not carry a role, got %q", claims.Role)
	}

	// A refresh token must not pass as an access token.
	if _, err := m.Verify(pair.RefreshToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}
}

func TestVerify_ExpiredTokenRejected(t *testing.T) {
	m := newTestManager(t)
	issued := time.Now().Add(-time.Hour)

	pair, err := m.IssuePair(issued, Identity{UserID: "user-1", CompanyID: "company-a", Role: "provider"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expired access token accepted")
	}
}

func TestIdentity_PlatformStaff(t *testing.T) {
	id := Identity{UserID: "ops-1", CompanyID: PlatformCompanyID, Role: "super_admin"}
	if !id.IsPlatformStaff() {
		t.Fatalf("platform company id not recognised as staff")
	}
}
