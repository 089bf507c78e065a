package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Port       string `yaml:"port"`
	AppEnv     string `yaml:"app_env"`
	LogLevel   string `yaml:"log_level"`
	CORSOrigin string `yaml:"cors_origin"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Upload struct {
		Dir   string `yaml:"dir"`
		MaxMB int64  `yaml:"max_mb"`
	} `yaml:"upload"`

	Ledger struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"ledger"`

	StockReport struct {
		Schedule          string `yaml:"schedule"`
		LowStockThreshold int    `yaml:"low_stock_threshold"`
	} `yaml:"stock_report"`
}

// Default returns the settings used when nothing else is provided.
func Default() *Config {
	cfg := &Config{
		Port:       "5000",
		AppEnv:     "development",
		LogLevel:   "info",
		CORSOrigin: "http://localhost:3000",
	}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "file:sweetshop.db?_foreign_keys=on"
	cfg.JWT.TTL = 7 * 24 * time.Hour
	cfg.Upload.Dir = "./uploads"
	cfg.Upload.MaxMB = 5
	cfg.Ledger.MaxAttempts = 5
	cfg.StockReport.Schedule = "@every 1h"
	cfg.StockReport.LowStockThreshold = 10
	return cfg
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then lets environment variables override both.
func Load(path string) (*Config, error) {
	// A missing .env is fine; we rely on the real environment then.
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("APP_ENV", &c.AppEnv)
	str("LOG_LEVEL", &c.LogLevel)
	str("CORS_ORIGIN", &c.CORSOrigin)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	str("JWT_SECRET", &c.JWT.Secret)
	str("UPLOAD_DIR", &c.Upload.Dir)
	str("STOCK_REPORT_SCHEDULE", &c.StockReport.Schedule)

	if v, ok := lookup("JWT_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.JWT.TTL = d
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"LEDGER_MAX_ATTEMPTS", &c.Ledger.MaxAttempts},
		{"LOW_STOCK_THRESHOLD", &c.StockReport.LowStockThreshold},
	}
	for _, it := range ints {
		if v, ok := lookup(it.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", it.key, err)
			}
			*it.dst = n
		}
	}
	if v, ok := lookup("MAX_UPLOAD_MB"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
		}
		c.Upload.MaxMB = n
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("unknown database driver %q (want mysql or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DB_DSN is not set")
	}
	if c.Ledger.MaxAttempts < 1 {
		return errors.New("ledger max attempts must be at least 1")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
