package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the prospectdb API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Limits   LimitsConfig   `yaml:"limits"`
	Seed     SeedConfig     `yaml:"seed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, sqlite (default: memory)
	Addrs            []string `yaml:"addrs"`  // redis only
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"` // redis only
	Path             string   `yaml:"path"`       // sqlite only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LimitsConfig holds request size limits.
type LimitsConfig struct {
	MaxImportRows   int `yaml:"max_import_rows"` // 0 = unlimited
	DefaultPageSize int `yaml:"default_page_size"`
}

// SeedConfig holds startup seeding settings.
type SeedConfig struct {
	Fixture     string   `yaml:"fixture"` // path to a YAML fixture file, empty disables seeding
	Collections []string `yaml:"collections"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "prospectdb"
	}
	if c.Database.Path == "" {
		c.Database.Path = "prospectdb.sqlite"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Limits.MaxImportRows < 0 {
		c.Limits.MaxImportRows = 0
	}
	if c.Limits.DefaultPageSize <= 0 {
		c.Limits.DefaultPageSize = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory", "sqlite":
		// no address needed
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be memory, redis or sqlite, got %q", c.Database.Driver)
	}
	if c.Seed.Fixture != "" && len(c.Seed.Collections) > 0 {
		seen := make(map[string]struct{}, len(c.Seed.Collections))
		for _, name := range c.Seed.Collections {
			if name == "" {
				return fmt.Errorf("seed.collections must not contain empty names")
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("seed.collections contains %q twice", name)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
