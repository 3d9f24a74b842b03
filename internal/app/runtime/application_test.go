package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcrew/service_layer/internal/config"
	"github.com/hackcrew/service_layer/internal/logging"
	"github.com/hackcrew/service_layer/internal/middleware"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second},
		Store:  config.StoreConfig{Driver: config.StoreMemory},
		Generator: config.GeneratorConfig{
			BaseURL:         "http://127.0.0.1:1",
			QuestionsPath:   "/agents/questions",
			AssignmentsPath: "/agents/research-assignments",
			PRDPath:         "/agents/prd",
		},
		Auth:      config.AuthConfig{JWTSecret: "runtime-test", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: "http://localhost:3000"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100, CleanupSchedule: "@every 1m"},
		Upload:    config.UploadConfig{MaxBytes: 1 << 20},
	}
}

func TestBuildMemoryGateway(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), logging.Discard())
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)

	resp = httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "ratelimit-sweeper")
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Driver = "sqlite"
	_, err := Build(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sqlite"))
}

func TestBuildWarnsOnDefaultJWTSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.JWTSecret = config.DefaultJWTSecret
	log := logging.Discard()
	log.SetLevel(logrus.WarnLevel)
	hook := logtest.NewLocal(log.Logger)

	_, err := Build(context.Background(), cfg, log)
	require.NoError(t, err)

	found := false
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "JWT_SECRET") {
			found = true
		}
	}
	assert.True(t, found, "expected a warning about the default JWT secret")
}

func TestRateLimitSweeperLifecycle(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, logging.Discard())
	svc := rateLimitSweeper(limiter, "@every 1h")
	assert.Equal(t, "ratelimit-sweeper", svc.Name())

	require.NoError(t, svc.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Stop(ctx))

	bad := rateLimitSweeper(limiter, "not a schedule")
	assert.Error(t, bad.Start(context.Background()))
	assert.NoError(t, bad.Stop(context.Background()))
}

func TestShutdownStopsComponents(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, a.app.Start(context.Background()))
	assert.NoError(t, a.Shutdown(context.Background()))
}
