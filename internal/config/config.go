package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config aggregates application configuration values.
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Ledger   LedgerConfig
	Logging  LoggingConfig
}

type HTTPConfig struct {
	Port            string
	AllowedOrigins  string
	ShutdownTimeout time.Duration
	// Requests per minute per IP on money-moving routes.
	TransactionRateLimit int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds the key/value connection string understood by both pgx and lib/pq.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// LedgerConfig holds the knobs of the transfer engine.
type LedgerConfig struct {
	Timezone             string
	DefaultCurrency      string
	DefaultDailyLimit    decimal.Decimal
	FeePercentages       map[string]decimal.Decimal
	FeeCacheTTL          time.Duration
	WalletCacheTTL       time.Duration
	MaxConflictRetries   int
	MaxReferenceAttempts int
	NotifyTimeout        time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // json|console
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Env: GetEnv("ENV", "development"),
		HTTP: HTTPConfig{
			Port:                 GetEnv("PORT", "3000"),
			AllowedOrigins:       GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			ShutdownTimeout:      GetDurationEnv("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			TransactionRateLimit: GetIntEnv("TRANSACTION_RATE_LIMIT", 30),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "bitcash"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: GetEnv("JWT_SECRET", ""),
			Issuer: GetEnv("JWT_ISSUER", "bitcash-api"),
			TTL:    GetDurationEnv("JWT_TTL", 15*time.Minute),
		},
		Ledger: LedgerConfig{
			Timezone:             GetEnv("LEDGER_TIMEZONE", "Africa/Tripoli"),
			DefaultCurrency:      GetEnv("LEDGER_DEFAULT_CURRENCY", "LYD"),
			FeeCacheTTL:          GetDurationEnv("FEE_CACHE_TTL", 5*time.Minute),
			WalletCacheTTL:       GetDurationEnv("WALLET_CACHE_TTL", 30*time.Minute),
			MaxConflictRetries:   GetIntEnv("LEDGER_MAX_CONFLICT_RETRIES", 3),
			MaxReferenceAttempts: GetIntEnv("LEDGER_MAX_REFERENCE_ATTEMPTS", 3),
			NotifyTimeout:        GetDurationEnv("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "json"),
		},
	}

	var err error
	if cfg.Ledger.DefaultDailyLimit, err = GetDecimalEnv("LEDGER_DEFAULT_DAILY_LIMIT", decimal.NewFromInt(10000)); err != nil {
		return Config{}, err
	}

	cfg.Ledger.FeePercentages = make(map[string]decimal.Decimal)
	for txType, def := range map[string]int64{
		"transfer":   1,
		"payment":    1,
		"withdrawal": 0,
		"deposit":    0,
	} {
		pct, err := GetDecimalEnv("FEE_PERCENT_"+upper(txType), decimal.NewFromInt(def))
		if err != nil {
			return Config{}, err
		}
		if pct.IsNegative() {
			return Config{}, fmt.Errorf("FEE_PERCENT_%s must not be negative", upper(txType))
		}
		cfg.Ledger.FeePercentages[txType] = pct
	}

	if _, err := time.LoadLocation(cfg.Ledger.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid LEDGER_TIMEZONE %q: %w", cfg.Ledger.Timezone, err)
	}
	if cfg.JWT.Secret == "" {
		if cfg.Env == "production" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWT.Secret = "dev-secret"
	}

	return cfg, nil
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetDecimalEnv parses a decimal environment variable. Unlike the other getters a
// malformed value is an error, money settings must not silently fall back.
func GetDecimalEnv(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal, nil
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
