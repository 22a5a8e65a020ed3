package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// fromEnv builds a Config populated only with the KOMODO_* variables that
// are actually set, so a mergo.WithOverride merge touches nothing else.
func fromEnv() (Config, error) {
	var cfg Config
	var err error

	cfg.Title = os.Getenv("KOMODO_TITLE")
	cfg.Host = os.Getenv("KOMODO_HOST")
	cfg.Passkey = os.Getenv("KOMODO_PASSKEY")
	cfg.GithubWebhookSecret = os.Getenv("KOMODO_GITHUB_WEBHOOK_SECRET")
	cfg.GithubWebhookBaseURL = os.Getenv("KOMODO_GITHUB_WEBHOOK_BASE_URL")
	cfg.Mongo.URI = os.Getenv("KOMODO_MONGO_URI")
	cfg.Mongo.Database = os.Getenv("KOMODO_MONGO_DATABASE")
	cfg.AWS.AccessKeyID = os.Getenv("KOMODO_AWS_ACCESS_KEY_ID")
	cfg.AWS.SecretAccessKey = os.Getenv("KOMODO_AWS_SECRET_ACCESS_KEY")
	cfg.AWS.Region = os.Getenv("KOMODO_AWS_REGION")
	cfg.Hetzner.Token = os.Getenv("KOMODO_HETZNER_TOKEN")
	cfg.Logging.Level = os.Getenv("KOMODO_LOGGING_LEVEL")

	if cfg.Port, err = envInt("KOMODO_PORT"); err != nil {
		return cfg, err
	}
	if cfg.KeepStatsForDays, err = envInt("KOMODO_KEEP_STATS_FOR_DAYS"); err != nil {
		return cfg, err
	}
	if cfg.KeepAlertsForDays, err = envInt("KOMODO_KEEP_ALERTS_FOR_DAYS"); err != nil {
		return cfg, err
	}
	if cfg.JWTValidFor, err = envDuration("KOMODO_JWT_VALID_FOR"); err != nil {
		return cfg, err
	}
	if cfg.MonitoringInterval, err = envDuration("KOMODO_MONITORING_INTERVAL"); err != nil {
		return cfg, err
	}
	// Bool overrides only take effect when true: mergo.WithOverride leaves a
	// zero src value (false) alone, so KOMODO_TRANSPARENT_MODE=false cannot
	// unset a file-configured true. Setting it true from either layer wins.
	if cfg.TransparentMode, err = envBool("KOMODO_TRANSPARENT_MODE"); err != nil {
		return cfg, err
	}
	if cfg.LocalAuth, err = envBool("KOMODO_LOCAL_AUTH"); err != nil {
		return cfg, err
	}
	if cfg.Logging.Pretty, err = envBool("KOMODO_LOGGING_PRETTY"); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func envBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

func envDuration(name string) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	// Bare integers are seconds; anything else is parsed as a Go duration
	// string ("30s", "24h") so either form works in the environment.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
