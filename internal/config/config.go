package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Remote   RemoteConfig   `yaml:"remote"`
	Roadmap  RoadmapConfig  `yaml:"roadmap"`
	Log      LogConfig      `yaml:"log"`
	Emulator EmulatorConfig `yaml:"emulator"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// RemoteConfig describes the remote data service the roadmap operations call.
// The bearer token is never stored here; TokenEnv names the variable it is
// read from on every call.
type RemoteConfig struct {
	URL           string   `yaml:"url"`
	TokenEnv      string   `yaml:"token_env"`
	IntegrationID string   `yaml:"integration_id"`
	Timeout       Duration `yaml:"timeout"` // zero means no client timeout
}

// RoadmapConfig contains roadmap operation settings.
type RoadmapConfig struct {
	ListCacheTTL Duration `yaml:"list_cache_ttl"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// EmulatorConfig contains settings for the local remote-service emulator.
type EmulatorConfig struct {
	Port         int    `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	Stream       bool   `yaml:"stream"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → .env → YAML file → env vars.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadLocal loads configuration for commands that never call the remote
// service, such as the emulator. The remote URL is not required.
func LoadLocal() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := cfg.validateLocal(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load() (*Config, error) {
	cfg := newDefaults()

	// .env never overrides variables that are already set
	if err := loadDotEnv(getEnv("WAYPOINT_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	configPath := getEnv("WAYPOINT_CONFIG_PATH", "config/waypoint.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit config paths.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Remote: RemoteConfig{
			TokenEnv:      "WAYPOINT_REMOTE_TOKEN",
			IntegrationID: "i:databases-management",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Emulator: EmulatorConfig{
			Port:         8090,
			DatabasePath: "data/emulator.db",
		},
	}
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}
	return nil
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("WAYPOINT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	overrideDuration("WAYPOINT_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	overrideDuration("WAYPOINT_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	overrideDuration("WAYPOINT_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Remote
	if v := os.Getenv("WAYPOINT_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("WAYPOINT_REMOTE_TOKEN_ENV"); v != "" {
		cfg.Remote.TokenEnv = v
	}
	if v := os.Getenv("WAYPOINT_INTEGRATION_ID"); v != "" {
		cfg.Remote.IntegrationID = v
	}
	overrideDuration("WAYPOINT_REMOTE_TIMEOUT", &cfg.Remote.Timeout)

	// Roadmap
	overrideDuration("WAYPOINT_LIST_CACHE_TTL", &cfg.Roadmap.ListCacheTTL)

	// Log
	if v := os.Getenv("WAYPOINT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WAYPOINT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WAYPOINT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// Emulator
	if v := os.Getenv("WAYPOINT_EMULATOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Emulator.Port = port
		}
	}
	if v := os.Getenv("WAYPOINT_EMULATOR_DB"); v != "" {
		cfg.Emulator.DatabasePath = v
	}
	if v := os.Getenv("WAYPOINT_EMULATOR_STREAM"); v != "" {
		cfg.Emulator.Stream = v == "true" || v == "1"
	}
}

func overrideDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks that required configuration values are set.
// In dev mode (WAYPOINT_DEV_MODE=true), the remote URL check is skipped.
// The bearer token is not checked here; a missing token fails the operation
// that needed it.
func (c *Config) validate() error {
	if err := c.validateLocal(); err != nil {
		return err
	}
	if c.Roadmap.ListCacheTTL < 0 {
		return errors.New("roadmap.list_cache_ttl must not be negative")
	}

	if os.Getenv("WAYPOINT_DEV_MODE") == "true" {
		return nil
	}

	if c.Remote.URL == "" {
		return errors.New("WAYPOINT_REMOTE_URL is required")
	}
	return nil
}

// validateLocal checks the settings every command needs.
func (c *Config) validateLocal() error {
	if c.Remote.TokenEnv == "" {
		return errors.New("remote.token_env must not be empty")
	}
	if c.Emulator.Port <= 0 || c.Emulator.Port > 65535 {
		return fmt.Errorf("emulator.port %d out of range", c.Emulator.Port)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
