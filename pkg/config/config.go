package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable prefix for all settings
const envPrefix = "FEEDJOURNAL_"

// Config holds all configuration options for the journal importer
type Config struct {
	// Feed API settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Where the highest imported post identifier is kept
	Watermark WatermarkConfig `yaml:"watermark" json:"watermark"`

	// Note-taking backend
	Exporter ExporterConfig `yaml:"exporter" json:"exporter"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Run metrics
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FeedConfig holds settings for the paginated feed API
type FeedConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	TimelinePath      string        `yaml:"timeline_path" json:"timeline_path"`
	PermalinkBase     string        `yaml:"permalink_base" json:"permalink_base"`
	Token             string        `yaml:"token" json:"token"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxPages          int           `yaml:"max_pages" json:"max_pages"`
}

// WatermarkConfig holds the watermark file location
type WatermarkConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ExporterConfig selects and configures the note-taking backend
type ExporterConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	Command    string `yaml:"command" json:"command"`
	TimeFormat string `yaml:"time_format" json:"time_format"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	OnRateLimit bool `yaml:"on_rate_limit" json:"on_rate_limit"`
}

// MetricsConfig holds run metrics output settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Exporter backends
const (
	BackendDayOne = "dayone"
	BackendStdout = "stdout"
)

// DefaultWatermarkPath returns the watermark location under the given home directory
func DefaultWatermarkPath(home string) string {
	return filepath.Join(home, "Dropbox", "Journal.dayone", "tweets_last_id.txt")
}

// DefaultConfig returns a Config instance with sensible defaults.
// The watermark path is left empty when the home directory cannot be
// resolved, so it has to come from the config file or the environment.
func DefaultConfig() *Config {
	watermarkPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		watermarkPath = DefaultWatermarkPath(home)
	}

	return &Config{
		Feed: FeedConfig{
			BaseURL:           "https://api.twitter.com",
			TimelinePath:      "/1/statuses/user_timeline.json",
			PermalinkBase:     "https://twitter.com/#!/",
			UserAgent:         "feedjournal/1.0",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 0,
			MaxPages:          200,
		},
		Watermark: WatermarkConfig{
			Path: watermarkPath,
		},
		Exporter: ExporterConfig{
			Backend:    BackendDayOne,
			Command:    "dayone",
			TimeFormat: "2006-01-02 15:04:05 -0700",
		},
		Notifications: NotificationConfig{
			Enabled:     false,
			OnRateLimit: true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Feed.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "TOKEN"); v != "" {
		c.Feed.Token = v
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Feed.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.Feed.Timeout = d
	}
	if v := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sREQUESTS_PER_MINUTE: %w", envPrefix, err)
		}
		c.Feed.RequestsPerMinute = n
	}
	if v := os.Getenv(envPrefix + "WATERMARK_PATH"); v != "" {
		c.Watermark.Path = v
	}
	if v := os.Getenv(envPrefix + "EXPORTER"); v != "" {
		c.Exporter.Backend = v
	}
	if v := os.Getenv(envPrefix + "EXPORTER_COMMAND"); v != "" {
		c.Exporter.Command = v
	}
	if v := os.Getenv(envPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(envPrefix + "METRICS_TEXTFILE"); v != "" {
		c.Metrics.Textfile = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first existing config file in the standard locations, or ""
func FindConfigFile() string {
	locations := []string{
		".feedjournal.yaml",
		".feedjournal.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".config", "feedjournal", "config.yaml"),
			filepath.Join(home, ".config", "feedjournal", "config.yml"),
			filepath.Join(home, ".feedjournal.yaml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.BaseURL == "" {
		errs = append(errs, errors.New("feed base URL is required"))
	}
	if c.Feed.TimelinePath == "" {
		errs = append(errs, errors.New("feed timeline path is required"))
	}
	if c.Feed.Timeout <= 0 {
		errs = append(errs, errors.New("feed timeout must be positive"))
	}
	if c.Feed.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Feed.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}

	if c.Watermark.Path == "" {
		errs = append(errs, errors.New("watermark path is required (home directory unknown, set watermark.path or "+envPrefix+"WATERMARK_PATH)"))
	}

	switch strings.ToLower(c.Exporter.Backend) {
	case BackendDayOne:
		if c.Exporter.Command == "" {
			errs = append(errs, errors.New("exporter command is required for the dayone backend"))
		}
	case BackendStdout:
	default:
		errs = append(errs, fmt.Errorf("unknown exporter backend %q", c.Exporter.Backend))
	}
	if c.Exporter.TimeFormat == "" {
		errs = append(errs, errors.New("exporter time format is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if backend, ok := flags["exporter"].(string); ok && backend != "" {
		c.Exporter.Backend = backend
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Feed.Token = token
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".feedjournal.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
