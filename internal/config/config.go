package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Development-only placeholders. Every real deployment must override them.
const (
	DefaultAccessSecret  = "access_secret"
	DefaultRefreshSecret = "refresh_secret"
	DefaultCookieSecret  = "supersecret"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	MySQLDSN   string `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=Local"`
	ResetDB    bool   `env:"RESET_DB" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTAccessSecret  string `env:"JWT_ACCESS_SECRET" envDefault:"access_secret"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET" envDefault:"refresh_secret"`
	CookieSecret     string `env:"COOKIE_SECRET" envDefault:"supersecret"`
	CookieSecure     bool   `env:"COOKIE_SECURE" envDefault:"false"`

	SwaggerHost string `env:"SWAGGER_HOST"`
}

// Load builds Config from environment with development defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs with APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// PlaceholderSecrets returns the names of secrets still set to their development defaults.
func (c *Config) PlaceholderSecrets() []string {
	var names []string
	if c.JWTAccessSecret == DefaultAccessSecret {
		names = append(names, "JWT_ACCESS_SECRET")
	}
	if c.JWTRefreshSecret == DefaultRefreshSecret {
		names = append(names, "JWT_REFRESH_SECRET")
	}
	if c.CookieSecret == DefaultCookieSecret {
		names = append(names, "COOKIE_SECRET")
	}
	return names
}
