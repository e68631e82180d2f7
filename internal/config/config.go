// Package config loads server configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the server binary needs from the environment.
// Defaults are chosen so `go run ./cmd/server` works with no setup at all.
type Config struct {
	Port    int    `env:"PORT,       default=8080"`
	DBPath  string `env:"DB_PATH,    default=data/miniblog.db"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SessionSecret signs session tokens. If empty, the server generates a
	// random secret at startup — existing sessions then die with the
	// process, which is acceptable because sessions are ephemeral anyway.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL, default=24h"`

	GitHub GitHubConfig
}

// GitHubConfig enables the optional "sign in with GitHub" flow.
// Leave ClientID empty to run with password auth only.
type GitHubConfig struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
