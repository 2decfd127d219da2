package auth

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/finnrudolph/firmlens/internal/config"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/google/uuid"
	"pgregory.net/rapid"
)

func testService() *Service {
	return NewService(nil, &config.JWTConfig{
		Secret:             "test-secret-key-for-jwt-testing-32chars",
		Issuer:             "firmlens",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	})
}

func testUser(role models.UserRole) *models.User {
	return &models.User{
		ID:          uuid.New(),
		Email:       "tester@example.com",
		DisplayName: "Tester",
		Role:        role,
	}
}

// TestProperty_TokenPair_RoundTrip tests that issued tokens validate
// *For any* user, both tokens of a generated pair SHALL validate against
// the same secret and carry the user's identity.
func TestProperty_TokenPair_RoundTrip(t *testing.T) {
	svc := testService()

	rapid.Check(t, func(rt *rapid.T) {
		role := models.UserRoleMember
		if rapid.Bool().Draw(rt, "isAdmin") {
			role = models.UserRoleAdmin
		}
		user := testUser(role)

		pair, err := svc.generateTokenPair(user)
		if err != nil {
			t.Fatalf("Failed to generate token pair: %v", err)
		}

		accessClaims, err := svc.validateToken(pair.AccessToken)
		if err != nil {
			t.Fatalf("Access token failed validation: %v", err)
		}
		if accessClaims.Subject != "access" {
			t.Fatalf("PROPERTY VIOLATION: access token subject = %q", accessClaims.Subject)
		}
		if accessClaims.UserID != user.ID.String() {
			t.Fatalf("PROPERTY VIOLATION: access token user = %q, want %q", accessClaims.UserID, user.ID)
		}
		if accessClaims.Role != string(role) {
			t.Fatalf("PROPERTY VIOLATION: access token role = %q, want %q", accessClaims.Role, role)
		}

		refreshClaims, err := svc.validateToken(pair.RefreshToken)
		if err != nil {
			t.Fatalf("Refresh token failed validation: %v", err)
		}
		if refreshClaims.Subject != "refresh" {
			t.Fatalf("PROPERTY VIOLATION: refresh token subject = %q", refreshClaims.Subject)
		}
	})
}

func TestTokenPair_DistinctJTI(t *testing.T) {
	svc := testService()
	user := testUser(models.UserRoleMember)

	pair, err := svc.generateTokenPair(user)
	if err != nil {
		t.Fatalf("Failed to generate token pair: %v", err)
	}

	access, err := svc.validateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("Failed to validate access token: %v", err)
	}
	refresh, err := svc.validateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Failed to validate refresh token: %v", err)
	}

	if access.ID == "" || refresh.ID == "" {
		t.Fatal("Tokens should carry a JTI")
	}
	if access.ID == refresh.ID {
		t.Fatal("Access and refresh tokens should have distinct JTIs")
	}
}

func TestGenerateJTI_WellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		jti := generateJTI()

		// 16 random bytes, base64url without padding
		raw, err := base64.RawURLEncoding.DecodeString(jti)
		if err != nil {
			t.Fatalf("JTI %q is not base64url: %v", jti, err)
		}
		if len(raw) != 16 {
			t.Fatalf("JTI decodes to %d bytes, want 16", len(raw))
		}
		if bytes.Equal(raw, make([]byte, 16)) {
			t.Fatal("JTI is all zero bytes")
		}
		if seen[jti] {
			t.Fatalf("JTI %q repeated", jti)
		}
		seen[jti] = true
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := testService()
	verifier := NewService(nil, &config.JWTConfig{
		Secret:             "a-different-secret-entirely-32chars!",
		Issuer:             "firmlens",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	})

	pair, err := issuer.generateTokenPair(testUser(models.UserRoleMember))
	if err != nil {
		t.Fatalf("Failed to generate token pair: %v", err)
	}

	if _, err := verifier.validateToken(pair.AccessToken); err != ErrInvalidToken {
		t.Fatalf("Token signed with another secret should be invalid, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := testService()

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.validateToken(tok); err == nil {
			t.Fatalf("Token %q should fail validation", tok)
		}
	}
}
