package auth

import (
	"testing"
	"time"
)

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildJWT(secret, 42, RoleCliente, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	claims, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 || claims.Role != RoleCliente {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("test-secret-min-32-chars!!"), 7, RoleMassoterapeuta, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT([]byte("outro-secret-min-32-chars!!!"), tok); err == nil {
		t.Fatal("ParseJWT com secret errado deveria falhar")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildJWT(secret, 7, RoleCliente, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Fatal("token expirado deveria falhar")
	}
}

func TestEmailToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildEmailToken(secret, "maria@example.com", PurposeConfirmEmail, 24*time.Hour)
	if err != nil {
		t.Fatalf("BuildEmailToken: %v", err)
	}
	email, err := ParseEmailToken(secret, tok, PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("ParseEmailToken: %v", err)
	}
	if email != "maria@example.com" {
		t.Fatalf("email: got %q", email)
	}
}

func TestEmailToken_WrongPurpose(t *testing.T) {
	// Token de confirmação não pode valer como redefinição de senha.
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildEmailToken(secret, "maria@example.com", PurposeConfirmEmail, 24*time.Hour)
	if err != nil {
		t.Fatalf("BuildEmailToken: %v", err)
	}
	if _, err := ParseEmailToken(secret, tok, PurposeResetPassword); err == nil {
		t.Fatal("propósito trocado deveria falhar")
	}
}
