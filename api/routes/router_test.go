package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/internal/wallet"
	"github.com/bitewise-app/bitewise-backend/pkg/auth"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "bitewise", ExpirationMinutes: 60},
		Rewards: config.RewardsConfig{
			DailyCoinCap:      30,
			MonthlyCoinCap:    500,
			RedeemablePercent: 80,
		},
	}
}

func testWalletService(t *testing.T, cfg *config.Config) wallet.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range []string{`
CREATE TABLE IF NOT EXISTS economy_accounts (
  user_id TEXT PRIMARY KEY,
  total_savings NUMERIC NOT NULL DEFAULT 0,
  total_coins INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS coin_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  reason TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	svc, err := wallet.NewService(wallet.ServiceParams{
		DB:      db,
		Repo:    wallet.NewRepository(db),
		Economy: economy.NewRepository(db),
		Rewards: cfg.Rewards,
	})
	require.NoError(t, err)
	return svc
}

func TestRouter_PublicSurface(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, nil, nil, Services{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-BiteWise-Env"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestRouter_RequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, nil, nil, Services{}, nil)

	for _, path := range []string{
		"/api/v1/wallet/summary",
		"/api/v1/orders/",
		"/api/v1/referrals/status",
		"/api/v1/missions/snapshot",
		"/api/v1/leaderboard/me",
		"/api/v1/notifications/",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_AuthenticatedWalletFlow(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, nil, nil, Services{Wallet: testWalletService(t, cfg)}, nil)

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.Identity{UID: uuid.New()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/credit",
		strings.NewReader(`{"amount":10,"reason":"daily_check_in"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/wallet/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_coins":10`)
}

func TestRouter_RejectsBadToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, nil, nil, Services{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/summary", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
