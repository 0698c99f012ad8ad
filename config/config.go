// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Default object names for the two credential files kept in the hub.
const (
	DefaultTokenFile        = "yttoken.json"
	DefaultClientSecretFile = "ytcredentials.json"
)

// Config holds all configuration for automated YouTube publishing.
// It is immutable after Load returns; environment probes run once.
type Config struct {
	// EncryptPath is the local mirror directory for encrypted credential blobs
	// and their decrypted working copies (default: "./encrypt")
	EncryptPath string `json:"encrypt_path"`
	// AuthCodePath is the file the browser automator writes the OAuth
	// redirect URL to (default: "./code.txt")
	AuthCodePath string `json:"auth_code_path"`

	// TokenFile is the object name of the OAuth token in the hub
	TokenFile string `json:"token_file"`
	// ClientSecretFile is the object name of the OAuth client descriptor
	ClientSecretFile string `json:"client_secret_file"`

	// HubBaseURL is the base URL of the credential hub
	HubBaseURL string `json:"hub_base_url"`
	// HubRepoID identifies the hub repository holding encrypted credentials
	HubRepoID string `json:"hub_repo_id"`
	// HubRepoType is the hub repository type (default: "dataset")
	HubRepoType string `json:"hub_repo_type"`
	// HubToken is the hub access token (env HUB_TOKEN)
	HubToken string `json:"-"`

	// EncryptionKey is the base64 Fernet key for credential blobs (env ENCRYPT_KEY)
	EncryptionKey string `json:"-"`

	// GoogleEmail and GooglePassword are the account secrets for automated
	// browser login (env GOOGLE_EMAIL / GOOGLE_PASSWORD)
	GoogleEmail    string `json:"-"`
	GooglePassword string `json:"-"`

	// BrowserExecutable is the browser binary path ("" = chromedp default)
	BrowserExecutable string `json:"browser_executable"`
	// BrowserProfilePath is the persistent browser profile directory
	BrowserProfilePath string `json:"browser_profile_path"`

	// IsContainer reports whether the process runs inside a container
	IsContainer bool `json:"is_container"`
	// HasDisplay reports whether a display server is available
	HasDisplay bool `json:"has_display"`
	// HeadlessMode controls whether the browser runs without a display.
	// Resolution order: YTAUTOPUB_HEADLESS env var if set, otherwise
	// IsContainer || !HasDisplay (a container always forces headless,
	// even when a display is advertised).
	HeadlessMode bool `json:"headless_mode"`

	// Scopes are the OAuth scopes requested for the YouTube session
	Scopes []string `json:"scopes"`

	// MaxRetries is the maximum number of retries for failed operations
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1)
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// TwoFactorWait bounds how long the automator waits for a two-factor
	// challenge to be satisfied
	TwoFactorWait time.Duration `json:"two_factor_wait"`
	// RedirectWait bounds how long the automator waits for the OAuth redirect
	RedirectWait time.Duration `json:"redirect_wait"`
	// CodePollInterval is the polling interval for the authorization code file
	CodePollInterval time.Duration `json:"code_poll_interval"`
}

// DefaultScopes are the YouTube API scopes requested during authorization.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.force-ssl",
	"https://www.googleapis.com/auth/userinfo.email",
}

// DefaultConfig returns configuration with safe defaults. Environment probes
// (container detection, display detection) run here, once.
func DefaultConfig() *Config {
	isContainer := probeContainer()
	hasDisplay := probeDisplay()

	home, _ := os.UserHomeDir()

	return &Config{
		EncryptPath:        "./encrypt",
		AuthCodePath:       "./code.txt",
		TokenFile:          DefaultTokenFile,
		ClientSecretFile:   DefaultClientSecretFile,
		HubBaseURL:         "https://huggingface.co",
		HubRepoType:        "dataset",
		BrowserProfilePath: filepath.Join(home, ".ytautopub_browser_profile"),
		IsContainer:        isContainer,
		HasDisplay:         hasDisplay,
		HeadlessMode:       isContainer || !hasDisplay,
		Scopes:             append([]string(nil), DefaultScopes...),
		MaxRetries:         3,
		InitialBackoff:     1 * time.Second,
		MaxBackoff:         30 * time.Second,
		BackoffMultiplier:  2.0,
		TwoFactorWait:      5 * time.Minute,
		RedirectWait:       2 * time.Minute,
		CodePollInterval:   10 * time.Second,
	}
}

// Load loads configuration from environment variables, config file, and
// applies defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytautopub.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytautopub.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytautopub", "ytautopub.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTAUTOPUB_ENCRYPT_PATH"); v != "" {
		c.EncryptPath = v
	}
	if v := os.Getenv("YTAUTOPUB_AUTH_CODE_PATH"); v != "" {
		c.AuthCodePath = v
	}
	if v := os.Getenv("YTAUTOPUB_TOKEN_FILE"); v != "" {
		c.TokenFile = v
	}
	if v := os.Getenv("YTAUTOPUB_CLIENT_SECRET_FILE"); v != "" {
		c.ClientSecretFile = v
	}
	if v := os.Getenv("YTAUTOPUB_HUB_BASE_URL"); v != "" {
		c.HubBaseURL = v
	}
	if v := os.Getenv("YTAUTOPUB_HUB_REPO_ID"); v != "" {
		c.HubRepoID = v
	}
	if v := os.Getenv("YTAUTOPUB_HUB_REPO_TYPE"); v != "" {
		c.HubRepoType = v
	}
	if v := os.Getenv("HUB_TOKEN"); v != "" {
		c.HubToken = v
	}
	if v := os.Getenv("ENCRYPT_KEY"); v != "" {
		c.EncryptionKey = v
	}
	if v := os.Getenv("GOOGLE_EMAIL"); v != "" {
		c.GoogleEmail = v
	}
	if v := os.Getenv("GOOGLE_PASSWORD"); v != "" {
		c.GooglePassword = v
	}
	if v := os.Getenv("YTAUTOPUB_BROWSER_EXECUTABLE"); v != "" {
		c.BrowserExecutable = v
	}
	if v := os.Getenv("YTAUTOPUB_BROWSER_PROFILE"); v != "" {
		c.BrowserProfilePath = v
	}
	if v := os.Getenv("YTAUTOPUB_HEADLESS"); v != "" {
		c.HeadlessMode = v == "true" || v == "1"
	}
	if v := os.Getenv("YTAUTOPUB_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTAUTOPUB_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("YTAUTOPUB_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
	if v := os.Getenv("YTAUTOPUB_TWO_FACTOR_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TwoFactorWait = d
		}
	}
	if v := os.Getenv("YTAUTOPUB_REDIRECT_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RedirectWait = d
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.EncryptPath == "" {
		return fmt.Errorf("encrypt_path must not be empty")
	}
	if c.TokenFile == "" || c.ClientSecretFile == "" {
		return fmt.Errorf("token_file and client_secret_file must not be empty")
	}
	if c.HubBaseURL == "" {
		return fmt.Errorf("hub_base_url must not be empty")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("at least one OAuth scope is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	if c.TwoFactorWait <= 0 || c.RedirectWait <= 0 {
		return fmt.Errorf("two_factor_wait and redirect_wait must be positive")
	}
	if c.CodePollInterval <= 0 {
		return fmt.Errorf("code_poll_interval must be positive")
	}
	return nil
}

// TokenPath returns the local working path of the decrypted token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.EncryptPath, c.TokenFile)
}

// ClientSecretPath returns the local working path of the decrypted client
// descriptor file.
func (c *Config) ClientSecretPath() string {
	return filepath.Join(c.EncryptPath, c.ClientSecretFile)
}

// probeContainer reports whether the process appears to run inside a
// container. Read-only probe, evaluated once per process.
func probeContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return os.Getenv("container") != ""
}

// probeDisplay reports whether a display server is reachable.
func probeDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
