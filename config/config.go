package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Env             string
	LogLevel        string
	HTTPAddr        string
	DBURL           string
	RedisAddress    string
	SymmetricKey    string
	TokenExpiry     time.Duration
	DefaultCurrency string
	CorsOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
	SMTP            SMTPConfig
}

// SMTPConfig is optional; an empty Host disables outgoing mail.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Load reads configuration from the environment, after merging a .env file
// when one is present in the working directory.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return nil, errors.New("missing DB_URL environment variable")
	}

	return &AppConfig{
		Env:             getEnv("APP_ENV", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8930"),
		DBURL:           dbURL,
		RedisAddress:    os.Getenv("REDIS_URL"),
		SymmetricKey:    os.Getenv("SYMMETRIC_KEY"),
		TokenExpiry:     GetEnvAsDuration("TOKEN_EXPIRY", 12*time.Hour),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "NGN"),
		CorsOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 15),
		RateLimitBurst:  GetEnvAsInt("RATE_LIMIT_BURST", 30),
		ShutdownTimeout: GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     GetEnvAsInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
		},
	}, nil
}

// RequireSymmetricKey checks the token key needed by the HTTP server.
func (c *AppConfig) RequireSymmetricKey() error {
	if len(c.SymmetricKey) != 32 {
		return errors.New("SYMMETRIC_KEY must be exactly 32 bytes long")
	}
	return nil
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(name, defaultValue string) string {
	if value, exists := os.LookupEnv(name); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt reads an integer variable, falling back to defaultValue when unset or malformed.
func GetEnvAsInt(name string, defaultValue int) int {
	if value, exists := os.LookupEnv(name); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s, using default: %d", name, defaultValue)
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(name); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("Warning: Invalid float value for %s, using default: %v", name, defaultValue)
	}
	return defaultValue
}

// GetEnvAsDuration reads a time.ParseDuration value, falling back to defaultValue.
func GetEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(name); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		log.Printf("Warning: Invalid duration value for %s, using default: %s", name, defaultValue.String())
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
