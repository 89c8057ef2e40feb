package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Connection pool
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	DBPingMaxWaitSec     int

	// Server
	Port           string
	AllowedOrigins []string
	TrustedProxies []string

	// Uploads
	UploadDir       string
	UploadURLPrefix string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth
	JWTSecret       string
	AuthRequired    bool
	LoginRatePerMin int

	// Report events
	AMQPURL              string
	ReportEventsExchange string
}

func Load() *Config {
	cfg := &Config{
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "report_logger"),

		DBMaxOpenConns:       getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetimeMin: getEnvAsInt("DB_CONN_MAX_LIFETIME_MIN", 5),
		DBPingMaxWaitSec:     getEnvAsInt("DB_PING_MAX_WAIT_SEC", 60),

		Port:           getEnv("PORT", "3001"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),

		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadURLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		AuthRequired:    getEnvAsBool("AUTH_REQUIRED", false),
		LoginRatePerMin: getEnvAsInt("LOGIN_RATE_PER_MIN", 10),

		AMQPURL:              getEnv("AMQP_URL", ""),
		ReportEventsExchange: getEnv("REPORT_EVENTS_EXCHANGE", "report-logger"),
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not configured, login tokens are signed with an insecure default")
		cfg.JWTSecret = "report-logger-dev-secret"
	}
	if cfg.AuthRequired && cfg.JWTSecret == "report-logger-dev-secret" {
		log.Warn("AUTH_REQUIRED is set without JWT_SECRET")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		log.Warnf("Cannot parse %s=%q as a positive int, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		log.Warnf("Cannot parse %s=%q as bool, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

// getEnvAsList splits a comma-separated value, dropping empty parts.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
