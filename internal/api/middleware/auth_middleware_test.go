package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"contentwizard/internal/auth"
)

func newTestTokens(t *testing.T) *auth.TokenService {
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

	tokens, err := auth.NewTokenService(privatePEM, publicPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return tokens
}

func protectedRouter(tokens *auth.TokenService) (*gin.Engine, *uint) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var seenUserID uint
	router.GET("/protected", AuthMiddleware(tokens), func(c *gin.Context) {
		if id, ok := c.Get("userID"); ok {
			seenUserID = id.(uint)
		}
		c.Status(http.StatusOK)
	})
	return router, &seenUserID
}

func TestAuthMiddleware_MissingTokenIs401(t *testing.T) {
	tokens := newTestTokens(t)
	router, _ := protectedRouter(tokens)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthMiddleware_InvalidTokenIs403(t *testing.T) {
	tokens := newTestTokens(t)
	router, _ := protectedRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestAuthMiddleware_RefreshTokenIs403(t *testing.T) {
	tokens := newTestTokens(t)
	router, _ := protectedRouter(tokens)

	pair, err := tokens.GenerateTokenPair(7)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for refresh token on an access route", w.Code)
	}
}

func TestAuthMiddleware_ValidTokenInjectsUserID(t *testing.T) {
	tokens := newTestTokens(t)
	router, seenUserID := protectedRouter(tokens)

	pair, err := tokens.GenerateTokenPair(7)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if *seenUserID != 7 {
		t.Fatalf("userID in context = %d, want 7", *seenUserID)
	}
}
