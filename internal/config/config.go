// Package config loads service settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"

	"countrygraph/internal/providers/worldbank"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	Playground      bool          `yaml:"playground"`
	ComplexityLimit int           `yaml:"complexity_limit"`
	QueryCacheSize  int           `yaml:"query_cache_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type WorldBankConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	Source    string `yaml:"source"`
	PerPage   int    `yaml:"per_page"`
	// Timeout of zero keeps the HTTP transport defaults.
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	// Path of the sqlite snapshot database. Empty disables persistence.
	Path string `yaml:"path"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WorldBank WorldBankConfig `yaml:"worldbank"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5000",
			Path:            "/graphql",
			Playground:      true,
			QueryCacheSize:  1000,
			ShutdownTimeout: 10 * time.Second,
		},
		WorldBank: WorldBankConfig{
			BaseURL: worldbank.DefaultBaseURL,
			Source:  "2",
			PerPage: 10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Path: "countrygraph.db",
		},
	}
}

// Load applies, in order: defaults, the YAML file at path (skipped when path is
// empty), environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getenv("COUNTRYGRAPH_ADDR", cfg.Server.Addr)
	cfg.Server.Path = getenv("COUNTRYGRAPH_PATH", cfg.Server.Path)
	cfg.Server.Playground = getenvBool("COUNTRYGRAPH_PLAYGROUND", cfg.Server.Playground)
	cfg.Store.Path = getenv("COUNTRYGRAPH_DB", cfg.Store.Path)

	cfg.WorldBank.BaseURL = getenv("WORLDBANK_BASE_URL", cfg.WorldBank.BaseURL)
	cfg.WorldBank.UserAgent = getenv("WORLDBANK_USER_AGENT", cfg.WorldBank.UserAgent)
	if seconds := getenvInt("WORLDBANK_TIMEOUT_SECONDS", -1); seconds >= 0 {
		cfg.WorldBank.Timeout = time.Duration(seconds) * time.Second
	}

	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if !strings.HasPrefix(c.Server.Path, "/") || c.Server.Path == "/" {
		errs = append(errs, fmt.Errorf("server.path must be an absolute path other than /, got %q", c.Server.Path))
	}
	if c.Server.ComplexityLimit < 0 {
		errs = append(errs, errors.New("server.complexity_limit must not be negative"))
	}
	if c.Server.QueryCacheSize < 0 {
		errs = append(errs, errors.New("server.query_cache_size must not be negative"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	if strings.TrimSpace(c.WorldBank.BaseURL) == "" {
		errs = append(errs, errors.New("worldbank.base_url is required"))
	}
	if c.WorldBank.PerPage < 0 {
		errs = append(errs, errors.New("worldbank.per_page must not be negative"))
	}
	if c.WorldBank.Timeout < 0 {
		errs = append(errs, errors.New("worldbank.timeout must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// WorldBankClient converts the worldbank section to a provider config.
func (c Config) WorldBankClient() worldbank.Config {
	return worldbank.Config{
		BaseURL:   c.WorldBank.BaseURL,
		Source:    c.WorldBank.Source,
		PerPage:   c.WorldBank.PerPage,
		UserAgent: c.WorldBank.UserAgent,
		Timeout:   c.WorldBank.Timeout,
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return fallback
	}
}
