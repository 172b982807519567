package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	APIURL               string        `mapstructure:"api_url" yaml:"api_url"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	AnalysisTimeout      time.Duration `mapstructure:"analysis_timeout" yaml:"analysis_timeout"`
	Language             string        `mapstructure:"language" yaml:"language"`
	NotificationCapacity int           `mapstructure:"notification_capacity" yaml:"notification_capacity"`
	MaxCVSizeMB          int           `mapstructure:"max_cv_size_mb" yaml:"max_cv_size_mb"`
	LogLevel             string        `mapstructure:"log_level" yaml:"log_level"`
	PrettyLog            bool          `mapstructure:"pretty_log" yaml:"pretty_log"`
}

// DirName is the per-user directory holding config and the local cache.
const DirName = ".careerflow"

var defaults = map[string]any{
	"api_url":               "http://127.0.0.1:8000/api",
	"request_timeout":       "15s",
	"analysis_timeout":      "3m",
	"language":              "en",
	"notification_capacity": 100,
	"max_cv_size_mb":        10,
	"log_level":             "warn",
	"pretty_log":            true,
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Initialize loads or creates the configuration file in the user's home
// directory.
func Initialize() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// Load reads config.yaml from dir, creating it with defaults when missing.
// CAREERFLOW_* environment variables override file values.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := createDefaultConfig(configFile); err != nil {
			return nil, err
		}
	}

	viper.Reset()
	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("careerflow")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 3 * time.Minute
	}
	if c.NotificationCapacity <= 0 {
		c.NotificationCapacity = 100
	}
	if c.MaxCVSizeMB <= 0 {
		c.MaxCVSizeMB = 10
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# CareerFlow Configuration
# Base URL of the analysis backend
api_url: http://127.0.0.1:8000/api

# Timeouts for ordinary requests and for CV analysis
request_timeout: 15s
analysis_timeout: 3m

# Display language: en or vi
language: en

# Number of notifications kept before the oldest are dropped
notification_capacity: 100
max_cv_size_mb: 10

# Logging: debug, info, warn, error
log_level: warn
pretty_log: true
`
	return os.WriteFile(path, []byte(defaultConfig), 0600)
}

// Set validates and persists a configuration value.
func Set(key, value string) error {
	def, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	parsed, err := parseValue(key, def, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	viper.Set(key, parsed)
	return viper.WriteConfig()
}

// parseValue converts value to the type of the key's default.
func parseValue(key string, def any, value string) (any, error) {
	switch def.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%q is not a positive number", value)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not true or false", value)
		}
		return b, nil
	}

	switch key {
	case "request_timeout", "analysis_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%q is not a positive duration such as 30s or 2m", value)
		}
		return value, nil
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("%q is not one of debug, info, warn, error", value)
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%q is not an http(s) URL", value)
		}
		return value, nil
	}
	if value == "" {
		return nil, fmt.Errorf("a value is required")
	}
	return value, nil
}

// All returns the effective settings, including defaults and environment
// overrides.
func All() map[string]any {
	out := make(map[string]any, len(defaults))
	for _, k := range Keys() {
		out[k] = viper.Get(k)
	}
	return out
}

// Get retrieves a configuration value
func Get(key string) string {
	return viper.GetString(key)
}

// Dir returns ~/.careerflow
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// GetConfigPath returns the path to the config file in use
func GetConfigPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	dir, _ := Dir()
	return filepath.Join(dir, "config.yaml")
}
