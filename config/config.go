package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Wallet   WalletConfig
	Notifier NotifierConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" env-default:"8099"`
	Env          string        `env:"ENV" env-default:"development"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_DSN" env-default:"root:@tcp(localhost:3306)/mzansi_market?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET" env-default:"change-me-in-production"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" env-default:"change-me-refresh"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" env-default:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" env-default:"168h"`
	Issuer        string        `env:"JWT_ISSUER" env-default:"mzansi-market"`
}

// WalletConfig carries the payout policy knobs.
type WalletConfig struct {
	// MinWithdrawal is the smallest amount a provider may request, in currency
	// units. Parsed with ParseMinWithdrawal.
	MinWithdrawal string `env:"WALLET_MIN_WITHDRAWAL" env-default:"50"`
	Currency      string `env:"WALLET_CURRENCY" env-default:"ZAR"`
}

type NotifierConfig struct {
	PollInterval time.Duration `env:"NOTIFIER_POLL_INTERVAL" env-default:"5s"`
	MaxAttempts  int           `env:"NOTIFIER_MAX_ATTEMPTS" env-default:"5"`
	BatchSize    int           `env:"NOTIFIER_BATCH_SIZE" env-default:"50"`
}

// AdminConfig seeds the bootstrap administrator account.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL" env-default:"admin@mzansimarket.co.za"`
	Username string `env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `env:"ADMIN_PASSWORD" env-default:"change-me-admin"`
}

// Load reads an optional .env file, then the environment. Missing variables
// fall back to the defaults above.
func Load() (*Config, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load() // .env in cwd, if present
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := cfg.Wallet.ParseMinWithdrawal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseMinWithdrawal parses the configured floor into a decimal.
func (w WalletConfig) ParseMinWithdrawal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(w.MinWithdrawal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid WALLET_MIN_WITHDRAWAL %q: %w", w.MinWithdrawal, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("WALLET_MIN_WITHDRAWAL must not be negative")
	}
	return d, nil
}
