package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string `env:"PORT" envDefault:"3333"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	ClerkSecretKey string `env:"CLERK_SECRET_KEY,required"`
	LogMode        string `env:"LOG_MODE" envDefault:"dev"`

	FCMCredentialsFile string `env:"FCM_CREDENTIALS_FILE" envDefault:"./serviceAccountKey.json"`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`

	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"5"`

	StreakMaxRetries int `env:"STREAK_MAX_RETRIES" envDefault:"3"`

	NotifyWorkers   int `env:"NOTIFY_WORKERS" envDefault:"4"`
	NotifyQueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"30"`
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load(files ...string) (*Config, bool, error) {
	foundDotEnv := godotenv.Load(files...) == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, foundDotEnv, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, foundDotEnv, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
