package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job intake service.
type Config struct {
	Classifier   ClassifierConfig
	Intake       IntakeConfig
	Store        StoreConfig
	Server       ServerConfig
	Notification NotificationConfig
}

// ClassifierConfig controls the external classification service.
type ClassifierConfig struct {
	BaseURL           string        // defaults to https://api.anthropic.com/v1
	APIKey            string        // expanded from env var by Load; may be empty if stored in the keychain
	KeyringAccount    string        // keychain account holding the API key
	Model             string        // model identifier
	MaxTokens         int           // response token budget
	APIVersion        string        // anthropic-version header
	Timeout           time.Duration // per-request timeout
	RequestsPerMinute int           // shared client-side throttle; 0 disables
	Retry             RetryConfig
}

// RetryConfig controls rate-limit retries on the Auto path.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration // multiplied by the attempt number
}

// IntakeConfig controls how submissions become jobs.
type IntakeConfig struct {
	SubmittedBy       string
	ProgramName       string        // program participants are matched against
	Pacing            time.Duration // pause between Auto calls in a bulk run
	ExpiryWindow      time.Duration // board lifetime of jobs with no expiration date
	QuickEntryDomains []string      // nil means built-in list
	ManualOnlyDomains []string      // nil means built-in list
	FrequentHirers    []HirerConfig // nil means built-in table
}

// HirerConfig describes one frequent hirer pattern entry.
type HirerConfig struct {
	Slug     string   `yaml:"slug"`
	Name     string   `yaml:"name"`
	Icon     string   `yaml:"icon"`
	Patterns []string `yaml:"patterns"`
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	Driver   string `yaml:"driver"`    // "sqlite" or "postgres"
	DSN      string `yaml:"dsn"`       // file path for sqlite, connection string for postgres
	LockPath string `yaml:"lock_path"` // bulk-run lock file
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// Defaults.
const (
	DefaultBaseURL       = "https://api.anthropic.com/v1"
	DefaultModel         = "claude-sonnet-4-20250514"
	DefaultAPIVersion    = "2023-06-01"
	DefaultMaxTokens     = 1500
	DefaultSubmittedBy   = "CEO Fresno Staff"
	DefaultProgramName   = "CEO Fresno"
	DefaultAddr          = ":8080"
	DefaultSQLitePath    = "jobintake.db"
	DefaultLockPath      = "jobintake.lock"
	DefaultKeyringAcct   = "classifier"
	defaultExpiryWindow  = 21 * 24 * time.Hour
	defaultTimeout       = 120 * time.Second
	defaultPacing        = time.Second
	defaultBackoff       = 5 * time.Second
	defaultMaxAttempts   = 3
	defaultServerTimeout = 5 * time.Minute
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Classifier   rawClassifierConfig `yaml:"classifier"`
	Intake       rawIntakeConfig     `yaml:"intake"`
	Store        StoreConfig         `yaml:"store"`
	Server       rawServerConfig     `yaml:"server"`
	Notification NotificationConfig  `yaml:"notification"`
}

type rawClassifierConfig struct {
	BaseURL           string         `yaml:"base_url"`
	APIKey            string         `yaml:"api_key"`
	KeyringAccount    string         `yaml:"keyring_account"`
	Model             string         `yaml:"model"`
	MaxTokens         int            `yaml:"max_tokens"`
	APIVersion        string         `yaml:"api_version"`
	Timeout           string         `yaml:"timeout"`
	RequestsPerMinute int            `yaml:"requests_per_minute"`
	Retry             rawRetryConfig `yaml:"retry"`
}

type rawRetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"`
}

type rawIntakeConfig struct {
	SubmittedBy       string        `yaml:"submitted_by"`
	ProgramName       string        `yaml:"program_name"`
	Pacing            string        `yaml:"pacing"`
	ExpiryWindow      string        `yaml:"expiry_window"`
	QuickEntryDomains []string      `yaml:"quick_entry_domains"`
	ManualOnlyDomains []string      `yaml:"manual_only_domains"`
	FrequentHirers    []HirerConfig `yaml:"frequent_hirers"`
}

type rawServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RequestTimeout string   `yaml:"request_timeout"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Environment variables are expanded
// first, then defaults are applied and the result validated.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	timeout, err := duration("classifier.timeout", raw.Classifier.Timeout, defaultTimeout)
	if err != nil {
		return nil, err
	}
	backoff, err := duration("classifier.retry.backoff", raw.Classifier.Retry.Backoff, defaultBackoff)
	if err != nil {
		return nil, err
	}
	pacing, err := duration("intake.pacing", raw.Intake.Pacing, defaultPacing)
	if err != nil {
		return nil, err
	}
	window, err := duration("intake.expiry_window", raw.Intake.ExpiryWindow, defaultExpiryWindow)
	if err != nil {
		return nil, err
	}
	reqTimeout, err := duration("server.request_timeout", raw.Server.RequestTimeout, defaultServerTimeout)
	if err != nil {
		return nil, err
	}

	rc := raw.Classifier
	cfg := &Config{
		Classifier: ClassifierConfig{
			BaseURL:           orDefault(rc.BaseURL, DefaultBaseURL),
			APIKey:            strings.TrimSpace(rc.APIKey),
			KeyringAccount:    orDefault(rc.KeyringAccount, DefaultKeyringAcct),
			Model:             orDefault(rc.Model, DefaultModel),
			MaxTokens:         rc.MaxTokens,
			APIVersion:        orDefault(rc.APIVersion, DefaultAPIVersion),
			Timeout:           timeout,
			RequestsPerMinute: rc.RequestsPerMinute,
			Retry: RetryConfig{
				MaxAttempts: rc.Retry.MaxAttempts,
				Backoff:     backoff,
			},
		},
		Intake: IntakeConfig{
			SubmittedBy:       orDefault(raw.Intake.SubmittedBy, DefaultSubmittedBy),
			ProgramName:       orDefault(raw.Intake.ProgramName, DefaultProgramName),
			Pacing:            pacing,
			ExpiryWindow:      window,
			QuickEntryDomains: raw.Intake.QuickEntryDomains,
			ManualOnlyDomains: raw.Intake.ManualOnlyDomains,
			FrequentHirers:    raw.Intake.FrequentHirers,
		},
		Store: StoreConfig{
			Driver:   orDefault(raw.Store.Driver, "sqlite"),
			DSN:      raw.Store.DSN,
			LockPath: orDefault(raw.Store.LockPath, DefaultLockPath),
		},
		Server: ServerConfig{
			Addr:           orDefault(raw.Server.Addr, DefaultAddr),
			AllowedOrigins: raw.Server.AllowedOrigins,
			RequestTimeout: reqTimeout,
		},
		Notification: raw.Notification,
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = DefaultMaxTokens
	}
	if cfg.Classifier.Retry.MaxAttempts == 0 {
		cfg.Classifier.Retry.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Store.DSN == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.DSN = DefaultSQLitePath
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

func duration(field, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func validate(cfg *Config) error {
	c := cfg.Classifier
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("classifier.base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("classifier.max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("classifier.requests_per_minute must not be negative, got %d", c.RequestsPerMinute)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("classifier.retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Backoff < 0 {
		return fmt.Errorf("classifier.retry.backoff must not be negative, got %v", c.Retry.Backoff)
	}

	in := cfg.Intake
	if in.Pacing < 0 {
		return fmt.Errorf("intake.pacing must not be negative, got %v", in.Pacing)
	}
	if in.ExpiryWindow <= 0 {
		return fmt.Errorf("intake.expiry_window must be positive, got %v", in.ExpiryWindow)
	}
	seen := make(map[string]bool)
	for i, h := range in.FrequentHirers {
		if h.Slug == "" {
			return fmt.Errorf("intake.frequent_hirers[%d]: slug is required", i)
		}
		if seen[h.Slug] {
			return fmt.Errorf("intake.frequent_hirers: duplicate slug %q", h.Slug)
		}
		seen[h.Slug] = true
		if len(h.Patterns) == 0 {
			return fmt.Errorf("intake.frequent_hirers[%q]: at least one pattern is required", h.Slug)
		}
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Store.Driver)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
