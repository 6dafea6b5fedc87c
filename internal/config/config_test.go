package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		prev, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev) //nolint:errcheck // Test cleanup
			} else {
				os.Unsetenv(key) //nolint:errcheck // Test cleanup
			}
		})
	}
}

var configKeys = []string{
	"ENV", "LOG_LEVEL", "DATA_PATH", "STORE_BACKEND", "SHOP_NAME", "SHOP_TIMEZONE",
	"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	"CORS_ORIGINS", "STAFF_USERNAME", "STAFF_PASSWORD_HASH", "ACCESS_TOKEN_DURATION",
	"LOGIN_RATE_PER_MINUTE", "PHOTO_MAX_DIMENSION", "PHOTO_QUALITY",
}

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/srv/smaki", Backend: BackendSQLite},
		Shop:    ShopConfig{Name: "Smaki", Timezone: "Europe/Warsaw"},
		Auth:    AuthConfig{StaffUsername: "staff"},
		Photos:  PhotoConfig{MaxDimension: 1200, Quality: 85},
	}
}

func TestValidate_ValidConfigResolvesLocation(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	require.NotNil(t, cfg.Shop.Location)
	assert.Equal(t, "Europe/Warsaw", cfg.Shop.Location.String())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"uppercase environment", func(c *Config) { c.App.Environment = "PRODUCTION" }, "invalid environment"},
		{"unknown level", func(c *Config) { c.Logger.Level = "trace" }, "invalid log level"},
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }, "data path cannot be empty"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "invalid store backend"},
		{"bad timezone", func(c *Config) { c.Shop.Timezone = "Mars/Olympus" }, "invalid shop timezone"},
		{"tiny photos", func(c *Config) { c.Photos.MaxDimension = 10 }, "photo max dimension"},
		{"quality zero", func(c *Config) { c.Photos.Quality = 0 }, "photo quality"},
		{"no staff username", func(c *Config) { c.Auth.StaffUsername = "" }, "STAFF_USERNAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, configKeys...)
	dataDir := t.TempDir()

	cfg, err := Load([]string{"-data-path", dataDir, "-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, dataDir, cfg.Storage.DataPath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 12*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 1200, cfg.Photos.MaxDimension)
	assert.Equal(t, 85, cfg.Photos.Quality)
	assert.Equal(t, 10, cfg.Auth.LoginPerMinute)
	assert.Equal(t, filepath.Join(dataDir, "smaki.db"), cfg.DatabasePath())
}

func TestLoad_EnvFileFlagsAndEnvironmentPrecedence(t *testing.T) {
	unsetEnv(t, configKeys...)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")

	content := `# shop settings
ENV=staging
LOG_LEVEL=debug
STORE_BACKEND=badger
SHOP_TIMEZONE="UTC"
SERVER_PORT=9000
CORS_ORIGINS=https://smaki.example, https://admin.smaki.example
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// Real environment beats the .env file.
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load([]string{"-env-file", envFile, "-data-path", dir, "-log-level", "warn"})
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, "warn", cfg.Logger.Level, "flag beats .env")
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "UTC", cfg.Shop.Location.String())
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"https://smaki.example", "https://admin.smaki.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join(dir, "badger"), cfg.DatabasePath())
}

func TestLoad_InvalidDuration(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("ACCESS_TOKEN_DURATION", "forever")

	_, err := Load([]string{"-data-path", t.TempDir(), "-env-file", "/nonexistent/.env"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_DURATION")
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/smaki-data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "smaki-data"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Contains(t, got, "relative/dir")
}

func TestGetIntConfigValue_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("PHOTO_QUALITY", "high")
	assert.Equal(t, 85, getIntConfigValue("", "PHOTO_QUALITY", 85))
	assert.Equal(t, 70, getIntConfigValue("70", "PHOTO_QUALITY", 85))
}
