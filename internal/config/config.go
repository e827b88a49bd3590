package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	AMQP        AMQPConfig
	Provider    ProviderConfig
	Account     AccountConfig
	Reservation ReservationConfig
	Auth        AuthConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL string
}

// ProviderConfig configures the opaque payment provider (card charges and
// PIX intents)
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	Environment string // "test" or "live"
}

// AccountConfig configures the external account-profile service used by the
// best-effort profile autosave
type AccountConfig struct {
	BaseURL string
	APIKey  string
}

// ReservationConfig holds the timing knobs of the reservation pipeline
type ReservationConfig struct {
	Window        time.Duration // how long unpaid inventory stays held
	SweepInterval time.Duration // how often the expiry sweep runs
	PollInterval  time.Duration // confirmation poll cadence
	TickInterval  time.Duration // countdown recompute cadence
}

type AuthConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: parseDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AMQP: AMQPConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("PAYMENT_PROVIDER_URL", ""),
			APIKey:      getEnv("PAYMENT_PROVIDER_API_KEY", ""),
			Environment: getEnv("PAYMENT_PROVIDER_ENVIRONMENT", "test"),
		},
		Account: AccountConfig{
			BaseURL: getEnv("ACCOUNT_SERVICE_URL", ""),
			APIKey:  getEnv("ACCOUNT_SERVICE_API_KEY", ""),
		},
		Reservation: ReservationConfig{
			Window:        getEnvAsDuration("RESERVATION_WINDOW", 15*time.Minute),
			SweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", 30*time.Second),
			PollInterval:  getEnvAsDuration("CONFIRMATION_POLL_INTERVAL", 5*time.Second),
			TickInterval:  getEnvAsDuration("COUNTDOWN_TICK_INTERVAL", time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the pipeline cannot run correctly under.
// A zero reservation window is a hard error: the window is the expiry
// fallback of last resort, and without it an order with no explicit or
// intent expiry would silently never lapse.
func (c *Config) Validate() error {
	if c.Reservation.Window <= 0 {
		return fmt.Errorf("RESERVATION_WINDOW must be a positive duration, got %v", c.Reservation.Window)
	}

	if c.Reservation.PollInterval <= 0 {
		return fmt.Errorf("CONFIRMATION_POLL_INTERVAL must be a positive duration, got %v", c.Reservation.PollInterval)
	}

	if c.Reservation.TickInterval <= 0 {
		return fmt.Errorf("COUNTDOWN_TICK_INTERVAL must be a positive duration, got %v", c.Reservation.TickInterval)
	}

	if c.Reservation.SweepInterval <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be a positive duration, got %v", c.Reservation.SweepInterval)
	}

	return nil
}

func parseDatabaseConfig() DatabaseConfig {
	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		return parseDatabaseURL(databaseURL)
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "event_checkout"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432 // Default PostgreSQL port
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	// Remove leading slash from path to get database name
	config.DBName = strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	config.SSLMode = query.Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
