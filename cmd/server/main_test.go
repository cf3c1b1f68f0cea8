package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azbeauty-be/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:         "8080",
		AppEnv:          "test",
		AppURL:          "http://localhost:3000",
		CORSOrigin:      "http://localhost:3000",
		JWTSecret:       "test-secret",
		EventsRateLimit: 30,
		QPayBaseURL:     "http://qpay.invalid/v2",
		EmailFrom:       "AZ Beauty <noreply@example.com>",
	}
}

func newMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewServer(t *testing.T) {
	router, cleanup := newServer(context.Background(), testConfig(), newMockDB(t))
	defer cleanup()
	require.NotNil(t, router)

	t.Run("health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"service":"az-beauty"`)
	})

	t.Run("playground outside production", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/playground", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("graphql is mounted", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/graphql", nil)
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("process metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "go_goroutines")
	})
}

func TestNewServer_ProductionHidesPlayground(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = config.EnvProduction

	router, cleanup := newServer(context.Background(), cfg, newMockDB(t))
	defer cleanup()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/playground", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConnectRedis_Unconfigured(t *testing.T) {
	assert.Nil(t, connectRedis(context.Background(), testConfig()))
}

func TestConnectRedis_BadURLFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "not-a-redis-url"
	assert.Nil(t, connectRedis(context.Background(), cfg))
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	initDBFunc = func(cfg *config.Config) *sql.DB {
		db, _, _ := sqlmock.New()
		return db
	}

	var addr string
	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	startServerFunc = func(_ context.Context, srv *http.Server) error {
		addr = srv.Addr
		return nil
	}

	t.Setenv("APP_PORT", "8081")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "")

	assert.NoError(t, run())
	assert.Equal(t, ":8081", addr)
}

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	assert.Error(t, run())
}

func TestStartServer_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	assert.NoError(t, startServer(ctx, srv))
}
