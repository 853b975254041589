package utils

import (
	"testing"
	"time"

	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	password := "secret123"

	// Test Hashing
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == password {
		t.Error("Hash should not match plaintext password")
	}

	if !CheckPasswordHash(password, hash) {
		t.Error("Password should match hash")
	}
	if CheckPasswordHash("wrongpassword", hash) {
		t.Error("Wrong password should not match hash")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-key-12345",
		Auth: config.AuthConfig{
			OperatorDomain:  "operador.local",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
}

func TestJWT(t *testing.T) {
	cfg := testConfig()
	user := &models.UserAuth{ID: "uuid-1234", Email: "1234@operador.local"}

	pair, err := GenerateTokens(user, cfg)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Tokens should not be empty")
	}
	if pair.ExpiresIn != 1800 || pair.TokenType != "bearer" {
		t.Errorf("pair = %+v", pair)
	}

	ident, err := ParseAccessToken(pair.AccessToken, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if ident.ID != user.ID || ident.Email != user.Email || ident.Role != models.RoleOperator {
		t.Errorf("identity = %+v", ident)
	}

	if _, err := ParseAccessToken(pair.AccessToken, "wrong-key"); err == nil {
		t.Error("Validation should fail with wrong key")
	}
	if _, err := ParseAccessToken(pair.RefreshToken, cfg.JWTSecret); err == nil {
		t.Error("refresh token must not be accepted as access token")
	}

	id, err := ParseRefreshToken(pair.RefreshToken, cfg.JWTSecret)
	if err != nil || id != user.ID {
		t.Errorf("ParseRefreshToken = %q, %v", id, err)
	}
	if _, err := ParseRefreshToken(pair.AccessToken, cfg.JWTSecret); err == nil {
		t.Error("access token must not be accepted as refresh token")
	}
}

func TestDeriveRole(t *testing.T) {
	tests := []struct {
		email, attr, want string
	}{
		{"0420@operador.local", "", models.RoleOperator},
		{"0420@OPERADOR.LOCAL", "", models.RoleOperator},
		{"ana@fabrica.com", "", models.RoleManager},
		{"ana@fabrica.com", "operador", models.RoleOperator},
		{"0420@operador.local", "gestor", models.RoleManager},
		{"ana@fabrica.com", "admin", models.RoleManager},
		{"x@evil-operador.local", "", models.RoleManager},
	}
	for _, tt := range tests {
		if got := DeriveRole(tt.email, tt.attr, "operador.local"); got != tt.want {
			t.Errorf("DeriveRole(%q, %q) = %q, want %q", tt.email, tt.attr, got, tt.want)
		}
	}
}

func TestLoginHelpers(t *testing.T) {
	for _, pin := range []string{"0000", "1234"} {
		if !ValidPIN(pin) {
			t.Errorf("%q should be valid", pin)
		}
	}
	for _, pin := range []string{"", "123", "12345", "12a4", "١٢٣٤", " 1234"} {
		if ValidPIN(pin) {
			t.Errorf("%q should be rejected", pin)
		}
	}
	if got := OperatorEmail("0420", "operador.local"); got != "0420@operador.local" {
		t.Errorf("OperatorEmail = %q", got)
	}
	if got := ManagerEmail("ana", "fabrica.com"); got != "ana@fabrica.com" {
		t.Errorf("ManagerEmail = %q", got)
	}
	if got := ManagerEmail("ana@outra.com", "fabrica.com"); got != "ana@outra.com" {
		t.Errorf("ManagerEmail with domain = %q", got)
	}
}
