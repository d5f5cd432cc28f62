package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func newTestService(t *testing.T, accessTTL, refreshTTL time.Duration) *TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	svc, err := NewTokenService(privatePEM, publicPEM, accessTTL, refreshTTL)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	svc := newTestService(t, 15*time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(42)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens must be issued")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	access, err := svc.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if access.UserID != 42 || access.TokenType != "access" {
		t.Fatalf("access claims = %+v", access)
	}
	if access.ID != "" {
		t.Fatal("access token must not carry a jti")
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.UserID != 42 || refresh.TokenType != "refresh" {
		t.Fatalf("refresh claims = %+v", refresh)
	}
	if refresh.ID == "" {
		t.Fatal("refresh token must carry a jti for revocation")
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc := newTestService(t, -time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("expired access token must be rejected")
	}
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	issuer := newTestService(t, 15*time.Minute, 24*time.Hour)
	verifier := newTestService(t, 15*time.Minute, 24*time.Hour)

	pair, err := issuer.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := verifier.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("token signed with another key must be rejected")
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := newTestService(t, 15*time.Minute, 24*time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateToken(token); err == nil {
			t.Fatalf("token %q must be rejected", token)
		}
	}
}

func TestNewTokenService_RequiresKeys(t *testing.T) {
	if _, err := NewTokenService(nil, []byte("x"), time.Minute, time.Hour); err == nil {
		t.Fatal("missing private key must fail")
	}
	if _, err := NewTokenService([]byte("x"), nil, time.Minute, time.Hour); err == nil {
		t.Fatal("missing public key must fail")
	}
	if _, err := NewTokenService([]byte("garbage"), []byte("garbage"), time.Minute, time.Hour); err == nil {
		t.Fatal("non-PEM key material must fail")
	}
}
