package activation_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alovak/card-activation/activation"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		cfg, err := activation.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		require.Equal(t, ":3001", cfg.HTTPAddr)
		require.Equal(t, time.Hour, cfg.TokenTTL)
		require.Equal(t, 10, cfg.BcryptCost)
		require.Equal(t, 30*time.Second, cfg.StoreConnectTimeout)
	})

	t.Run("file then environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yaml := "http_addr: \":8080\"\nadmin_username: ops\nstore_retry_interval: 2s\ncors_allowed_origins:\n  - https://example.com\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

		t.Setenv("ADMIN_PASSWORD", "s3cret")
		t.Setenv("TOKEN_TTL_MINUTES", "15")
		t.Setenv("STORE_HEARTBEAT_SECONDS", "3")
		t.Setenv("ALLOW_MEM_BACKEND_FOR_TESTS", "true")

		cfg, err := activation.LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.HTTPAddr)
		require.Equal(t, "ops", cfg.AdminUsername)
		require.Equal(t, "s3cret", cfg.AdminPassword)
		require.Equal(t, 2*time.Second, cfg.StoreRetryInterval)
		require.Equal(t, 3*time.Second, cfg.StoreHeartbeat)
		require.Equal(t, 15*time.Minute, cfg.TokenTTL)
		require.Equal(t, []string{"https://example.com"}, cfg.CORSAllowedOrigins)
		require.True(t, cfg.AllowMemBackend)

		t.Setenv("PORT", "4000")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")
		cfg, err = activation.LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, ":4000", cfg.HTTPAddr)
		require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	})

	t.Run("bad number", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "ten")
		_, err := activation.LoadConfig("")
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := activation.DefaultConfig()
	require.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.DatabaseURL = "postgres://localhost/activation"
	require.NoError(t, cfg.Validate())

	cfg.DatabaseURL = "host=localhost dbname=activation sslmode=disable"
	require.NoError(t, cfg.Validate())

	for _, bad := range []string{"postgres://user@localhost:notaport/activation", "postgres://%zz", "host=localhost port=abc"} {
		cfg.DatabaseURL = bad
		require.ErrorContains(t, cfg.Validate(), "parsing DATABASE_URL", bad)
	}
	cfg.DatabaseURL = "postgres://localhost/activation"

	cfg.Backend = "mem"
	require.Error(t, cfg.Validate())

	cfg.AllowMemBackend = true
	require.NoError(t, cfg.Validate())

	cfg.Backend = "mongo"
	require.ErrorContains(t, cfg.Validate(), "unsupported")
}
