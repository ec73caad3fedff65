package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	DBDriver       string `toml:"db_driver"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	SQLitePath     string `toml:"sqlite_path"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// rate limiting
	LoginRateLimitAllowedPerMin  int `toml:"login_rate_limit_allowed_per_min"`
	ReadmeRateLimitAllowedPerMin int `toml:"readme_rate_limit_allowed_per_min"`

	GitHubApiURL   string   `toml:"github_api_url"`
	AllowedOrigins []string `toml:"allowed_origins"`

	// progression tuning defaults, overridable per request
	BaseIncreasePct float64 `toml:"base_increase_pct"`
	MaxIncreaseKg   float64 `toml:"max_increase_kg"`
	MinSessions     int     `toml:"min_sessions"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env,
// with defaults applied to unset fields.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config [%s]: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DBDriver == "" {
		c.DBDriver = DBDriverSQLite
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "workout_tracker.db"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 5
	}
	if c.ReadmeRateLimitAllowedPerMin == 0 {
		c.ReadmeRateLimitAllowedPerMin = 30
	}
	if c.GitHubApiURL == "" {
		c.GitHubApiURL = "https://api.github.com"
	}
	if c.BaseIncreasePct == 0 {
		c.BaseIncreasePct = 2.5
	}
	if c.MaxIncreaseKg == 0 {
		c.MaxIncreaseKg = 5.0
	}
	if c.MinSessions == 0 {
		c.MinSessions = 3
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DBDriverPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres host, port and db name must be set")
		}
	case DBDriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite path must be set")
		}
	default:
		return fmt.Errorf("unknown db driver: %s", c.DBDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	return nil
}
