package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Store.GatewayTimeout)
	assert.Equal(t, 90*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "$", cfg.Generator.PRDResult)
	assert.True(t, cfg.Auth.UsesDefaultSecret())
	assert.Equal(t, []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:8080",
		"http://localhost:8081",
	}, cfg.CORS.Origins())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "STORE_DRIVER=postgres\nDATABASE_URL=postgres://localhost/hackcrew\nPORT=9100\nCORS_ALLOWED_ORIGINS=https://a.example,https://b.example\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv does not override variables that are already set, so clear the
	// ones this test depends on and restore them afterwards.
	for _, key := range []string{"STORE_DRIVER", "DATABASE_URL", "PORT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/hackcrew", cfg.Database.DSN)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins())
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory ok", func(c *Config) {}, false},
		{"supabase without url", func(c *Config) { c.Store.Driver = StoreSupabase }, true},
		{"supabase ok", func(c *Config) {
			c.Store.Driver = StoreSupabase
			c.Supabase.URL = "https://x.supabase.co"
			c.Supabase.ServiceKey = "key"
		}, false},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = StorePostgres }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"default secret without auth", func(c *Config) { c.Auth.JWTSecret = DefaultJWTSecret }, false},
		{"default secret with auth", func(c *Config) {
			c.Auth.JWTSecret = DefaultJWTSecret
			c.Auth.RequireAuth = true
		}, true},
		{"custom secret with auth", func(c *Config) { c.Auth.RequireAuth = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Store:  StoreConfig{Driver: StoreMemory},
				Auth:   AuthConfig{JWTSecret: "s"},
				Upload: UploadConfig{MaxBytes: 1},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
