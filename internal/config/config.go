// Package config loads service configuration from the environment.
// A .env file, when present, is loaded first.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service settings.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./data/ajopot.db"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// MaxGroupMembers bounds every circle's member set.
	MaxGroupMembers int `env:"MAX_GROUP_MEMBERS" envDefault:"12"`

	// Payment provider. Wallet top-up and withdraw fail with
	// BadGateway when the provider is unreachable.
	GatewayURL    string `env:"GATEWAY_URL" envDefault:"http://localhost:9090"`
	GatewayAPIKey string `env:"GATEWAY_API_KEY"`

	// Event broker. Events are discarded when AMQP_URL is empty.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"ajopot"`
}

// Load reads .env (if any) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}
