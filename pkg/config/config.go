// Package config loads Komodo core's configuration: a base TOML file
// overridden field-by-field by KOMODO_* environment variables, the same
// "file defaults, env wins" layering tarsy's pkg/config applies to its
// YAML + built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the fully resolved process configuration.
type Config struct {
	Title   string `toml:"title"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Passkey string `toml:"passkey"`

	JWTValidFor time.Duration `toml:"jwt_valid_for"`

	MonitoringInterval time.Duration `toml:"monitoring_interval"`
	KeepStatsForDays   int           `toml:"keep_stats_for_days"`
	KeepAlertsForDays  int           `toml:"keep_alerts_for_days"`

	GithubWebhookSecret  string `toml:"github_webhook_secret"`
	GithubWebhookBaseURL string `toml:"github_webhook_base_url"`

	TransparentMode bool `toml:"transparent_mode"`
	LocalAuth       bool `toml:"local_auth"`

	Mongo    MongoConfig    `toml:"mongo"`
	AWS      AWSConfig      `toml:"aws"`
	Hetzner  HetznerConfig  `toml:"hetzner"`
	Logging  LoggingConfig  `toml:"logging"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type AWSConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
}

type HetznerConfig struct {
	Token string `toml:"token"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	Pretty bool  `toml:"pretty"`
}

// Defaults returns the configuration used for any field neither the TOML
// file nor an environment variable sets.
func Defaults() Config {
	return Config{
		Title:              "Komodo",
		Host:               "0.0.0.0",
		Port:               9120,
		JWTValidFor:        24 * time.Hour,
		MonitoringInterval: 15 * time.Second,
		KeepStatsForDays:   14,
		KeepAlertsForDays:  14,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "komodo",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadError wraps a failure at a specific stage of configuration loading,
// mirroring tarsy's ValidationError shape (component + underlying error).
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string { return fmt.Sprintf("config: %s: %v", e.Stage, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Load resolves the full layering: defaults, then the TOML file named by
// KOMODO_CONFIG_PATH, then KOMODO_* environment
// variables, each layer overriding only the fields it sets. envFile, if
// non-empty, is loaded into the process environment first via godotenv so
// a local .env can supply KOMODO_* vars without exporting them by hand.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, &LoadError{Stage: "dotenv", Err: err}
		}
	}

	cfg := Defaults()

	path := os.Getenv("KOMODO_CONFIG_PATH")
	if path != "" {
		var fileCfg Config
		if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
			return nil, &LoadError{Stage: "toml", Err: err}
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, &LoadError{Stage: "merge-file", Err: err}
		}
	}

	envCfg, err := fromEnv()
	if err != nil {
		return nil, &LoadError{Stage: "env", Err: err}
	}
	if err := mergo.Merge(&cfg, envCfg, mergo.WithOverride); err != nil {
		return nil, &LoadError{Stage: "merge-env", Err: err}
	}

	if err := validate(&cfg); err != nil {
		return nil, &LoadError{Stage: "validate", Err: err}
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if !cfg.LocalAuth && cfg.Passkey == "" {
		return fmt.Errorf("passkey must be set unless local_auth is enabled")
	}
	if cfg.Mongo.URI == "" {
		return fmt.Errorf("mongo uri must not be empty")
	}
	return nil
}
