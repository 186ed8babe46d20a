package hub

import (
	"os"
	"testing"
)

func initTestJWT(t *testing.T) {
	t.Helper()
	os.Setenv(JWTSecretEnvVar, "test-secret-at-least-32-characters-long")
	if err := InitJWT(); err != nil {
		t.Fatalf("InitJWT failed: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	initTestJWT(t)

	user := &User{GUID: "guid-1", Tenant: "t1", Username: "alice", IsActive: true}

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserGUID != "guid-1" || claims.Username != "alice" || claims.Tenant != "t1" {
		t.Errorf("claims = %+v, want the user's identity", claims)
	}
	if claims.Issuer != TokenIssuer {
		t.Errorf("issuer = %q, want %q", claims.Issuer, TokenIssuer)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	initTestJWT(t)

	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token validated")
	}
	if _, err := ValidateToken(""); err == nil {
		t.Error("empty token validated")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	initTestJWT(t)
	user := &User{GUID: "guid-1", Tenant: "t1", Username: "alice"}
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// Rotate the secret: previously issued tokens must stop validating
	os.Setenv(JWTSecretEnvVar, "a-completely-different-32-char-secret!!")
	if err := InitJWT(); err != nil {
		t.Fatalf("InitJWT failed: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with old key validated after rotation")
	}
}

func TestInitJWTRejectsShortSecret(t *testing.T) {
	os.Setenv(JWTSecretEnvVar, "too-short")
	defer os.Unsetenv(JWTSecretEnvVar)

	if err := InitJWT(); err == nil {
		t.Error("short secret accepted")
	}
}
