// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tubevault/tubevault/internal/kv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	File  string // Rotated log file; empty logs to stderr
}

// StorageConfig selects the key-value medium holding the state document.
type StorageConfig struct {
	Backend string // memory, badger or sqlite (default: badger)
	Path    string // Data directory (default: ~/TubeVault/data)
	Origin  string // Key namespace inside the medium (default: tubevault)
	Quota   int64  // Byte budget for the origin; 0 disables it (default: 5 MiB)
}

// envConfig is the environment layer, defaults included.
type envConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	Backend     string `env:"STORAGE_BACKEND" envDefault:"badger"`
	DataPath    string `env:"DATA_PATH"`
	Origin      string `env:"STORAGE_ORIGIN" envDefault:"tubevault"`
	Quota       int64  `env:"STORAGE_QUOTA_BYTES" envDefault:"5242880"`
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// args excludes the program name. Parsing stops at the first non-flag argument;
// the remainder is returned in Config.Args.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tubevault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	envName := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Write logs to this rotated file instead of stderr")
	backend := fs.String("storage", "", "Storage backend (memory, badger, sqlite)")
	dataPath := fs.String("data-path", "", "Directory for persistent storage")
	origin := fs.String("origin", "", "Storage origin namespace")
	quota := fs.String("quota", "", "Storage quota in bytes, 0 for unlimited")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*envName, raw.Environment),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, raw.LogLevel),
			File:  getConfigValue(*logFile, raw.LogFile),
		},
		Storage: StorageConfig{
			Backend: getConfigValue(*backend, raw.Backend),
			Path:    getConfigValue(*dataPath, raw.DataPath),
			Origin:  getConfigValue(*origin, raw.Origin),
			Quota:   raw.Quota,
		},
		Args: fs.Args(),
	}

	if *quota != "" {
		quotaBytes, err := strconv.ParseInt(*quota, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid storage quota %q: %w", *quota, err)
		}
		cfg.Storage.Quota = quotaBytes
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Logger.File != "" {
		logPath, err := expandPath(cfg.Logger.File, "")
		if err != nil {
			return nil, fmt.Errorf("invalid log file: %w", err)
		}
		cfg.Logger.File = logPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Storage.Backend {
	case kv.BackendMemory:
	case kv.BackendBadger, kv.BackendSQLite:
		if c.Storage.Path == "" {
			return errors.New("data path cannot be empty for persistent storage")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory, badger, or sqlite)", c.Storage.Backend)
	}

	if c.Storage.Origin == "" {
		return errors.New("storage origin cannot be empty")
	}

	if c.Storage.Quota < 0 {
		return fmt.Errorf("invalid storage quota: %d (must be >= 0)", c.Storage.Quota)
	}

	return nil
}

// MediumConfig returns the settings used to open the key-value medium.
func (c *Config) MediumConfig() kv.Config {
	return kv.Config{
		Backend: c.Storage.Backend,
		Path:    c.Storage.Path,
		Origin:  c.Storage.Origin,
		Quota:   c.Storage.Quota,
	}
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath.
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

// expandDataPath defaults the data directory to ~/TubeVault/data.
func (c *Config) expandDataPath() error {
	if c.Storage.Backend == kv.BackendMemory && c.Storage.Path == "" {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "TubeVault", "data")

	expanded, err := expandPath(c.Storage.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.Path = expanded
	return nil
}

// getConfigValue returns the flag value when set, otherwise the environment layer's value.
func getConfigValue(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return envValue
}

// loadEnvFile loads environment variables from a .env file.
// Variables already present in the environment are left untouched.
func loadEnvFile(path string) error {
	return godotenv.Load(path)
}
