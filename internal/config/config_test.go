package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 10, cfg.StockReport.LowStockThreshold)
	assert.False(t, cfg.IsProduction())

	// No secret by default.
	assert.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                "8080",
		"APP_ENV":             "production",
		"DB_DRIVER":           "mysql",
		"DB_DSN":              "user:pass@tcp(localhost:3306)/sweets?parseTime=true",
		"JWT_SECRET":          "s3cret",
		"JWT_TTL":             "2h",
		"LEDGER_MAX_ATTEMPTS": "9",
		"LOW_STOCK_THRESHOLD": "3",
		"MAX_UPLOAD_MB":       "12",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 9, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 3, cfg.StockReport.LowStockThreshold)
	assert.Equal(t, int64(12), cfg.Upload.MaxMB)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for key, value := range map[string]string{
		"JWT_TTL":             "forever",
		"LEDGER_MAX_ATTEMPTS": "many",
		"MAX_UPLOAD_MB":       "big",
	} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			})
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.JWT.Secret = "secret"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "postgres")

	cfg = valid()
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Ledger.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
port: "7000"
database:
  driver: sqlite3
  dsn: "file::memory:"
jwt:
  secret: from-yaml
  ttl: 1h
ledger:
  max_attempts: 7
stock_report:
  schedule: "@every 5m"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "JWT_TTL", "LEDGER_MAX_ATTEMPTS", "STOCK_REPORT_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 7, cfg.Ledger.MaxAttempts)
	assert.Equal(t, "@every 5m", cfg.StockReport.Schedule)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}
