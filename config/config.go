package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/arabah/arabah/apiclient"
	"github.com/arabah/arabah/logging"
	"github.com/arabah/arabah/request"
	"gopkg.in/yaml.v3"
)

const (
	// PassphraseEnv supplies the session passphrase when the config file leaves it empty.
	PassphraseEnv = "ARABAH_SESSION_PASSPHRASE"

	// Default API settings
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10.0
	defaultBurst     = 5
	defaultLanguage  = apiclient.LanguageEnglish

	// Default server settings
	defaultListenAddr  = ":8080"
	defaultHistorySize = 100

	// Default monitoring settings
	defaultMetricsPrefix = "arabah"
	defaultJobName       = "arabah"

	redacted = "<redacted>"
)

// Config represents the complete application configuration
type Config struct {
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	Server     ServerConfig     `yaml:"server"`
	Refresh    []RefreshTrigger `yaml:"refresh"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Logging    logging.Config   `yaml:"logging"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	// Host is the base URL of the backend, including scheme.
	Host     string        `yaml:"host"`
	Language string        `yaml:"language"` // en or ar
	Timeout  time.Duration `yaml:"timeout"`
	// RateLimit is the client-side request rate in requests per second. Negative disables it.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// SessionConfig selects where the session is kept.
// An empty Path keeps the session in memory for the life of the process.
type SessionConfig struct {
	Path       string `yaml:"path"`
	Passphrase string `yaml:"passphrase"`
}

// ServerConfig holds the status server settings
type ServerConfig struct {
	Listener ListenerConfig `yaml:"listener"`
	// The directory used to store the outcome history. Empty keeps history in memory.
	StateDir    string `yaml:"state_dir"`
	HistorySize int    `yaml:"history_size"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr"`
	// CertFile and KeyFile enable TLS. Both or neither must be set.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// RefreshTrigger defines a set of list operations to refresh on a schedule.
type RefreshTrigger struct {
	Operations []string `yaml:"operations"`
	// The cron spec to refresh the operations at
	Schedule string `yaml:"schedule"`
}

// MonitoringConfig holds metrics settings.
// VictoriaMetricsURL is only used by one-shot CLI commands, which push on exit.
type MonitoringConfig struct {
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// BehaviorConfig defines request orchestration settings
type BehaviorConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	// MemorizeInvalidInput lets Retry replay input that failed validation.
	MemorizeInvalidInput bool `yaml:"memorize_invalid_input"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.API.Host == "" {
		return fmt.Errorf("API host is required")
	}
	u, err := url.Parse(c.API.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API host %q must be an absolute URL", c.API.Host)
	}
	if c.API.Language != apiclient.LanguageEnglish && c.API.Language != apiclient.LanguageArabic {
		return fmt.Errorf("API language must be %q or %q, got %q", apiclient.LanguageEnglish, apiclient.LanguageArabic, c.API.Language)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}
	if c.API.RateLimit > 0 && c.API.Burst < 1 {
		return fmt.Errorf("API burst must be at least 1 when rate limiting")
	}
	if c.Session.Path != "" && c.Session.Passphrase == "" {
		return fmt.Errorf("session passphrase is required for a session file (set %s)", PassphraseEnv)
	}
	if (c.Server.Listener.CertFile == "") != (c.Server.Listener.KeyFile == "") {
		return fmt.Errorf("listener cert_file and key_file must be set together")
	}
	if c.Server.HistorySize < 1 {
		return fmt.Errorf("history size must be positive")
	}
	for i, r := range c.Refresh {
		if r.Schedule == "" {
			return fmt.Errorf("refresh trigger %d: schedule is required", i)
		}
		if len(r.Operations) == 0 {
			return fmt.Errorf("refresh trigger %d: at least one operation is required", i)
		}
	}
	if c.Behavior.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.API.Language == "" {
		c.API.Language = defaultLanguage
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaultTimeout
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = defaultRateLimit
	}
	if c.API.Burst == 0 {
		c.API.Burst = defaultBurst
	}
	if c.Session.Passphrase == "" {
		c.Session.Passphrase = os.Getenv(PassphraseEnv)
	}
	if c.Server.Listener.Addr == "" {
		c.Server.Listener.Addr = defaultListenAddr
	}
	if c.Server.HistorySize == 0 {
		c.Server.HistorySize = defaultHistorySize
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Behavior.MaxAttempts == 0 {
		c.Behavior.MaxAttempts = request.DefaultMaxAttempts
	}
	c.Logging.SetDefaults()
}

// Redacted returns a copy of the config with secrets removed, for display.
func (c *Config) Redacted() Config {
	out := *c
	if out.Session.Passphrase != "" {
		out.Session.Passphrase = redacted
	}
	out.Refresh = append([]RefreshTrigger(nil), c.Refresh...)
	return out
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
