// Package config loads application configuration from the environment.
package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Mongo     Mongo     `yaml:"mongo"`
	Auth      Auth      `yaml:"auth"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Realtime  Realtime  `yaml:"realtime"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"PORT" env-default:"5000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address.
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Mongo holds MongoDB configuration.
type Mongo struct {
	URI      string `yaml:"uri" env:"MONGODB_URI"`
	Database string `yaml:"database" env:"MONGODB_DATABASE" env-default:"prolink"`
}

// Auth holds JWT configuration. Either Secret or Keys must be set; Keys uses
// the format "kid:secret,kid2:secret2" and enables token rotation.
type Auth struct {
	Secret    string        `yaml:"secret" env:"JWT_SECRET"`
	Keys      string        `yaml:"keys" env:"JWT_KEYS"`
	ActiveKid string        `yaml:"active_kid" env:"JWT_ACTIVE_KID"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"24h"`
}

// RateLimit controls throttling of the register/login endpoints.
type RateLimit struct {
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_RPM" env-default:"10"`
	Burst     int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"3"`
}

// Realtime holds WebSocket gateway configuration.
type Realtime struct {
	// SendBuffer is the per-connection outbound event buffer; events are
	// dropped for a connection whose buffer is full.
	SendBuffer int `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"32"`
}

// MustLoad loads configuration from environment and exits on error.
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Mongo.URI == "" {
		log.Fatal("MONGODB_URI must be set")
	}
	if cfg.Auth.Secret == "" && cfg.Auth.Keys == "" {
		log.Fatal("either JWT_SECRET or JWT_KEYS must be set")
	}

	return cfg
}
