// internal/config/config.go
package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
	// UserIdleTimeout retires per-user actors that have gone quiet.
	UserIdleTimeout time.Duration
	// TrustedProxies are the peers whose forwarding headers are believed.
	TrustedProxies []netip.Prefix
}

// DatabaseConfig holds document store settings
type DatabaseConfig struct {
	Type         string // "mongo" or "memory"
	URI          string
	Name         string
	Transactions bool
}

// AuthConfig holds token and role settings
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
}

// RedisConfig configures anonymous view de-duplication. An empty Addr
// falls back to the document store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ViewTTL  time.Duration
}

// KafkaConfig configures the audit stream. No brokers means events are logged only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config holds the complete application configuration
type Config struct {
	Server                 *ServerConfig
	Database               *DatabaseConfig
	Auth                   *AuthConfig
	Redis                  *RedisConfig
	Kafka                  *KafkaConfig
	AllowedOrigins         []string
	TrendingIncludePending bool
	LogLevel               string
	Debug                  bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:            8080,
		Host:            "0.0.0.0",
		MetricsEnabled:  true,
		RequestTimeout:  5 * time.Second,
		UserIdleTimeout: 10 * time.Minute,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type:         "mongo",
		URI:          "mongodb://localhost:27017",
		Name:         "newsroom",
		Transactions: true,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	envLocations := []string{
		".env",
		"../../.env", // project root when running from cmd/newsroom
		"../../../.env",
		filepath.Join(os.Getenv("GOPATH"), "src/newsroom/.env"),
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		_ = godotenv.Load()
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		serverConfig.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}
	timeout, err := getDuration("REQUEST_TIMEOUT", serverConfig.RequestTimeout)
	if err != nil {
		return nil, err
	}
	serverConfig.RequestTimeout = timeout
	if serverConfig.UserIdleTimeout, err = getDuration("USER_IDLE_TIMEOUT", serverConfig.UserIdleTimeout); err != nil {
		return nil, err
	}
	if serverConfig.TrustedProxies, err = parsePrefixes("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}

	dbConfig := DefaultDatabaseConfig()
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		dbConfig.Type = strings.ToLower(dbType)
	}
	switch dbConfig.Type {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (want mongo or memory)", dbConfig.Type)
	}
	dbConfig.URI = getEnvOrDefault("MONGODB_URI", dbConfig.URI)
	dbConfig.Name = getEnvOrDefault("MONGODB_DATABASE", dbConfig.Name)
	if tx := os.Getenv("MONGO_TRANSACTIONS"); tx != "" {
		dbConfig.Transactions = tx == "true"
	}

	authConfig := &AuthConfig{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
	}
	if authConfig.TokenTTL, err = getDuration("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if authConfig.JWTSecret == "" {
		if dbConfig.Type == "mongo" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required when DB_TYPE is mongo")
		}
		authConfig.JWTSecret = "newsroom-dev-secret"
	}

	redisConfig := &RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if redisConfig.DB, err = strconv.Atoi(dbStr); err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
	}
	if redisConfig.ViewTTL, err = getDuration("VIEW_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	kafkaConfig := &KafkaConfig{
		Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
		Topic:   getEnvOrDefault("KAFKA_TOPIC", "newsroom.audit"),
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Auth:           authConfig,
		Redis:          redisConfig,
		Kafka:          kafkaConfig,
		AllowedOrigins: []string{"*"},
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if origins := splitList(os.Getenv("ALLOWED_ORIGINS")); len(origins) > 0 {
		config.AllowedOrigins = origins
	}
	if os.Getenv("TRENDING_INCLUDE_PENDING") == "true" {
		config.TrendingIncludePending = true
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
		config.LogLevel = "debug"
	}

	return config, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}

// parsePrefixes reads a comma-separated list of IPs or CIDRs. A bare IP
// becomes a single-address prefix.
func parsePrefixes(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range splitList(os.Getenv(key)) {
		if strings.Contains(part, "/") {
			prefix, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
