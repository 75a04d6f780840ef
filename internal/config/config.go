package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Config holds every runtime setting of the server.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN      string `env:"DB_DSN"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"timeclock_user"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"timeclock_password"`
	DBName     string `env:"DB_NAME" envDefault:"timeclock_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"12h"`

	Timezone             string  `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`
	Locale               string  `env:"LOCALE" envDefault:"pt-BR"`
	DefaultWorkloadHours float64 `env:"DEFAULT_WORKLOAD_HOURS" envDefault:"8"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:5500"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment variables")
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that env parsing cannot.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DefaultWorkloadHours <= 0 || c.DefaultWorkloadHours > 24 {
		return fmt.Errorf("DEFAULT_WORKLOAD_HOURS must be within (0, 24]")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid LOCALE %q: %w", c.Locale, err)
	}
	return nil
}

// Location returns the single configured wall-clock location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Language returns the parsed LOCALE tag, falling back to Brazilian Portuguese.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// DatabaseDSN returns DB_DSN or, for postgres, a DSN built from the DB_* parts.
func (c *Config) DatabaseDSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == "sqlite" {
		return "timeclock.db"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
