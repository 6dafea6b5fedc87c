// Package config loads server configuration from flags, the environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Shop    ShopConfig
	Server  ServerConfig
	Auth    AuthConfig
	Photos  PhotoConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where and how shop data is kept.
type StorageConfig struct {
	DataPath string // root for the database, search index, photos and auth key
	Backend  string // sqlite (default) or badger
}

// ShopConfig holds shop identity and the calendar used for "today".
type ShopConfig struct {
	Name     string
	Timezone string
	Location *time.Location
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds the staff account and token settings.
type AuthConfig struct {
	StaffUsername       string
	StaffPasswordHash   string // argon2id encoded hash, see `smakictl hash-password`
	AccessTokenDuration time.Duration
	LoginPerMinute      int
}

// PhotoConfig controls flavor photo normalisation.
type PhotoConfig struct {
	MaxDimension int
	Quality      int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration with precedence:
// 1. command-line flags,
// 2. environment variables,
// 3. the .env file,
// 4. defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("smaki", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, search index and photos")
	backend := fs.String("store-backend", "", "Store backend (sqlite, badger)")
	shopName := fs.String("shop-name", "", "Shop name shown on the public page")
	timezone := fs.String("timezone", "", "IANA time zone that defines the shop's calendar day")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 12h)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; variables already in the environment win.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendSQLite)),
		},
		Shop: ShopConfig{
			Name:     getConfigValue(*shopName, "SHOP_NAME", "Smaki"),
			Timezone: getConfigValue(*timezone, "SHOP_TIMEZONE", "Europe/Warsaw"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			StaffUsername:     getConfigValue("", "STAFF_USERNAME", "staff"),
			StaffPasswordHash: getConfigValue("", "STAFF_PASSWORD_HASH", ""),
			LoginPerMinute:    getIntConfigValue("", "LOGIN_RATE_PER_MINUTE", 10),
		},
		Photos: PhotoConfig{
			MaxDimension: getIntConfigValue("", "PHOTO_MAX_DIMENSION", 1200),
			Quality:      getIntConfigValue("", "PHOTO_QUALITY", 85),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "12h", &cfg.Auth.AccessTokenDuration},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
// It also resolves Shop.Location from Shop.Timezone.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.Backend != BackendSQLite && c.Storage.Backend != BackendBadger {
		return fmt.Errorf("invalid store backend: %s (must be sqlite or badger)", c.Storage.Backend)
	}

	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return fmt.Errorf("invalid shop timezone %q: %w", c.Shop.Timezone, err)
	}
	c.Shop.Location = loc

	if c.Photos.MaxDimension < 64 {
		return fmt.Errorf("photo max dimension too small: %d", c.Photos.MaxDimension)
	}
	if c.Photos.Quality < 1 || c.Photos.Quality > 100 {
		return fmt.Errorf("photo quality out of range: %d (must be 1-100)", c.Photos.Quality)
	}

	if c.Auth.StaffUsername == "" {
		return errors.New("STAFF_USERNAME cannot be empty")
	}
	// An empty password hash is allowed; staff login is disabled until one is set.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/Smaki/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Smaki", "data"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// DatabasePath is the sqlite file or badger directory under the data path.
func (c *Config) DatabasePath() string {
	if c.Storage.Backend == BackendBadger {
		return filepath.Join(c.Storage.DataPath, "badger")
	}
	return filepath.Join(c.Storage.DataPath, "smaki.db")
}

// PhotosPath is where processed flavor photos are stored.
func (c *Config) PhotosPath() string {
	return filepath.Join(c.Storage.DataPath, "media")
}

// SearchIndexPath is the directory holding the bleve flavor index.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Storage.DataPath, "search")
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
