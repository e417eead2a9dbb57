// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL      string        `env:"CINETIX_API_URL" envDefault:"http://localhost:3022"`
	HTTPTimeout time.Duration `env:"CINETIX_HTTP_TIMEOUT" envDefault:"10s"`
	MaxAttempts int           `env:"CINETIX_MAX_ATTEMPTS" envDefault:"3"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CINETIX_LOG_FORMAT" envDefault:"text"`
	// LogFile defaults to cinetix.log in the user cache dir when empty.
	LogFile string `env:"CINETIX_LOG_FILE"`

	Dev DevServer
}

// DevServer configures the in-memory API started by "cinetix dev-server".
type DevServer struct {
	Addr           string        `env:"CINETIX_DEV_ADDR" envDefault:":3022"`
	PaymentSeconds int           `env:"CINETIX_DEV_PAYMENT_SECONDS" envDefault:"900"`
	JWTSecret      string        `env:"CINETIX_DEV_JWT_SECRET" envDefault:"cinetix-dev-secret"`
	TokenTTL       time.Duration `env:"CINETIX_DEV_TOKEN_TTL" envDefault:"24h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("CINETIX_API_URL must not be empty")
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("CINETIX_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	case c.MaxAttempts < 1:
		return fmt.Errorf("CINETIX_MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts)
	case c.Dev.PaymentSeconds < 1:
		return fmt.Errorf("CINETIX_DEV_PAYMENT_SECONDS must be at least 1, got %d", c.Dev.PaymentSeconds)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
