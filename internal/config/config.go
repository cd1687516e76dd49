package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// SweepDisabled turns off the stale day sweep job.
const SweepDisabled = "off"

// Config keeps runtime settings for the service.
type Config struct {
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTPAddress     string        `yaml:"http_address" env:"HTTP_ADDRESS" env-default:":3000"`
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL" env-default:"worktime.db"`
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTTTL          time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"168h"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	Timezone        string        `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	StaleDayCutoff  string        `yaml:"stale_day_cutoff" env:"STALE_DAY_CUTOFF" env-default:"19:00"`
	StaleDaySweep   string        `yaml:"stale_day_sweep" env:"STALE_DAY_SWEEP" env-default:"00:05"`
	TelegramToken   string        `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	RedisAddr       string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword   string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB         int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	AuthRateLimit   int           `yaml:"auth_rate_limit" env:"AUTH_RATE_LIMIT" env-default:"20"`
	AuthRateWindow  time.Duration `yaml:"auth_rate_window" env:"AUTH_RATE_WINDOW" env-default:"1m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads configuration from the file at path, or from the environment when
// path is empty or the file does not exist.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := time.Parse("15:04", c.StaleDayCutoff); err != nil {
		return fmt.Errorf("invalid STALE_DAY_CUTOFF %q, expected HH:MM", c.StaleDayCutoff)
	}
	if c.StaleDaySweep != SweepDisabled {
		if _, err := time.Parse("15:04", c.StaleDaySweep); err != nil {
			return fmt.Errorf("invalid STALE_DAY_SWEEP %q, expected HH:MM or %q", c.StaleDaySweep, SweepDisabled)
		}
	}
	if c.AuthRateLimit <= 0 || c.AuthRateWindow <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SweepEnabled reports whether the stale day sweep should be scheduled.
func (c Config) SweepEnabled() bool {
	return c.StaleDaySweep != SweepDisabled
}
