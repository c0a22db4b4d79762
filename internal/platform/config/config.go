package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	DiscordToken     string `env:"DISCORD_TOKEN"`
	SuggestChannelID string `env:"SUGGEST_CHANNEL_ID"`
	CommandPrefix    string `env:"COMMAND_PREFIX" default:"!"`
	OperatorUserIDs  string `env:"OPERATOR_USER_IDS"`
	AdminToken       string `env:"ADMIN_TOKEN"`

	VotingWindow          time.Duration `env:"VOTING_WINDOW" default:"48h"`
	FrequentSweepInterval time.Duration `env:"FREQUENT_SWEEP_INTERVAL" default:"30s"`
	FullSweepInterval     time.Duration `env:"FULL_SWEEP_INTERVAL" default:"24h"`
	SweepConcurrency      int           `env:"SWEEP_CONCURRENCY" default:"4"`
	SweepRateLimit        float64       `env:"SWEEP_RATE_LIMIT" default:"5"`
	AuthorCacheTTL        time.Duration `env:"AUTHOR_CACHE_TTL" default:"1h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Operators returns the user IDs allowed to trigger a manual sweep.
func (c *Config) Operators() []string {
	var ids []string
	for id := range strings.SplitSeq(c.OperatorUserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"DISCORD_TOKEN", cfg.DiscordToken},
		{"SUGGEST_CHANNEL_ID", cfg.SuggestChannelID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"VOTING_WINDOW", cfg.VotingWindow},
		{"FREQUENT_SWEEP_INTERVAL", cfg.FrequentSweepInterval},
		{"FULL_SWEEP_INTERVAL", cfg.FullSweepInterval},
		{"AUTHOR_CACHE_TTL", cfg.AuthorCacheTTL},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	if cfg.FrequentSweepInterval >= cfg.FullSweepInterval {
		return errors.New("FREQUENT_SWEEP_INTERVAL must be shorter than FULL_SWEEP_INTERVAL")
	}
	if cfg.SweepConcurrency < 1 {
		return errors.New("SWEEP_CONCURRENCY must be at least 1")
	}
	if cfg.SweepRateLimit <= 0 {
		return errors.New("SWEEP_RATE_LIMIT must be positive")
	}
	if cfg.CommandPrefix == "" {
		return errors.New("COMMAND_PREFIX must not be empty")
	}

	if cfg.IsProduction() {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
