package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/pkg/auth"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "bitewise-test", ExpirationMinutes: 60}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsWrongIssuer(t *testing.T) {
	otherIssuer := testJWTConfig()
	otherIssuer.Issuer = "someone-else"
	token, err := auth.MintAccessToken(otherIssuer, time.Now(), auth.Identity{UID: uuid.New()})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := testJWTConfig()
	uid := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.Identity{UID: uid, Email: "eater@bitewise.food"})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	var captured string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured != uid.String() {
		t.Fatalf("expected user %s in context, got %q", uid, captured)
	}
}
