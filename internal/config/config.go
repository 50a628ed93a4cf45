// Package config loads service settings from the environment, after reading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/models"
)

// Store drivers.
const (
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Config is the full service configuration.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"redis"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	BoltPath      string `envconfig:"BOLT_PATH" default:"guinote.db"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	NatsURL     string `envconfig:"NATS_URL"`

	MatchRetention     time.Duration `envconfig:"MATCH_RETENTION" default:"10m"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	FriendCacheSize    int           `envconfig:"FRIEND_CACHE_SIZE" default:"1024"`
	DefaultTurnTimeout time.Duration `envconfig:"DEFAULT_TURN_TIMEOUT" default:"30s"`
	WinThreshold       int           `envconfig:"WIN_THRESHOLD" default:"100"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Could not read .env file.")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.StoreDriver {
	case DriverRedis, DriverBolt, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.WinThreshold <= 0 {
		return fmt.Errorf("WIN_THRESHOLD must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return nil
}

// DefaultTurnPreset maps DEFAULT_TURN_TIMEOUT to the nearest preset.
func (c *Config) DefaultTurnPreset() models.TurnTimeout {
	switch {
	case c.DefaultTurnTimeout <= 15*time.Second:
		return models.TurnTimeoutShort
	case c.DefaultTurnTimeout >= 60*time.Second:
		return models.TurnTimeoutLong
	default:
		return models.TurnTimeoutNormal
	}
}
