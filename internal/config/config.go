package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the config directory and the keyring service.
const AppName = "gmail-mcp"

// Environment variables read by Load.
const (
	EnvConfigDir   = "GMAIL_MCP_CONFIG_DIR"
	EnvAccount     = "GMAIL_MCP_ACCOUNT"
	EnvDownloadDir = "GMAIL_MCP_DOWNLOAD_DIR"
	EnvAuthTimeout = "GMAIL_MCP_AUTH_TIMEOUT"
	EnvRateLimit   = "GMAIL_MCP_RATE_LIMIT"
	EnvRateBurst   = "GMAIL_MCP_RATE_BURST"
)

// Defaults.
const (
	CredentialsFileName = "credentials.json"
	DefaultAuthTimeout  = 5 * time.Minute
	DefaultRateLimit    = 5.0
	DefaultRateBurst    = 10
)

// Config is the resolved runtime configuration.
type Config struct {
	// Dir holds credentials.json and the optional .env file.
	Dir string

	// Account pins the keyring entry to use. Empty means the account that
	// last completed the consent flow.
	Account string

	// DownloadDir is the default target for get_attachments.
	DownloadDir string

	// AuthTimeout bounds how long the loopback listener waits for consent.
	AuthTimeout time.Duration

	// RateLimit and RateBurst pace outgoing Gmail requests.
	RateLimit float64
	RateBurst int
}

// CredentialsPath returns the path of the OAuth client identity file.
func (c Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFileName)
}

// Load resolves the configuration from the environment. The config
// directory is created with mode 0700 when missing, and a .env file inside
// it is loaded without overriding variables already set.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}

	envFile := filepath.Join(dir, ".env")
	if _, statErr := os.Stat(envFile); statErr == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Dir:         dir,
		Account:     os.Getenv(EnvAccount),
		DownloadDir: DownloadDir(),
		AuthTimeout: DefaultAuthTimeout,
		RateLimit:   DefaultRateLimit,
		RateBurst:   DefaultRateBurst,
	}

	if v := os.Getenv(EnvAuthTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive duration", EnvAuthTimeout, v)
		}
		cfg.AuthTimeout = d
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive number", EnvRateLimit, v)
		}
		cfg.RateLimit = f
	}
	if v := os.Getenv(EnvRateBurst); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive integer", EnvRateBurst, v)
		}
		cfg.RateBurst = n
	}

	return cfg, nil
}

// Dir returns the config directory, creating it if needed.
func Dir() (string, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		if xdg.ConfigHome == "" {
			return "", errors.New("cannot determine config directory: set " + EnvConfigDir)
		}
		dir = filepath.Join(xdg.ConfigHome, AppName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// DownloadDir returns the default attachment directory: the override
// variable, then the platform Downloads folder, then ~/Downloads.
func DownloadDir() string {
	if dir := os.Getenv(EnvDownloadDir); dir != "" {
		return dir
	}
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}
