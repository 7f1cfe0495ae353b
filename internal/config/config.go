// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Relay    RelayConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	Debug      bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	MigrationsDir string
	Seed          bool
	SeedPassword  string
}

// AuthConfig controls bearer token signing.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// KafkaConfig is empty (no brokers) when events are only logged.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	FlushTimeout time.Duration
}

// Enabled reports whether at least one broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RelayConfig tunes the outbox relay loop.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "quincaillerie"),
			Password:   getEnv("DB_PASSWORD", "quincaillerie"),
			DBName:     getEnv("DB_NAME", "quincaillerie"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "quincaillerie.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
			Seed:          getEnvBool("DB_SEED", false),
			SeedPassword:  getEnv("SEED_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Secret:   getEnv("AUTH_SECRET", ""),
			TokenTTL: getEnvDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvList("KAFKA_BROKERS"),
			Topic:        getEnv("KAFKA_TOPIC", "quincaillerie.events"),
			FlushTimeout: getEnvDuration("KAFKA_FLUSH_TIMEOUT", 5*time.Second),
		},
		Relay: RelayConfig{
			Interval:  getEnvDuration("OUTBOX_INTERVAL", 2*time.Second),
			BatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses values like "30s" or "12h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
