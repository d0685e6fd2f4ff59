// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Admin     AdminConfig
	Cleanup   CleanupConfig
	RateLimit int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	// DSN overrides the individual settings when set
	DSN string
}

// RedisConfig holds Redis connection settings.
// An empty Host disables the Redis backed cleanup queue.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// UploadConfig holds settings of the local upload storage
type UploadConfig struct {
	Dir          string
	MaxImageSize int64
}

// AdminConfig holds the credentials of the bootstrapped admin account
type AdminConfig struct {
	Email    string
	Phone    string
	Password string
}

// CleanupConfig holds settings of the stale upload cleanup
type CleanupConfig struct {
	Workers       int
	SweepSchedule string
	SweepGrace    time.Duration
}

// Defaults of the bootstrapped admin account
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPhone    = "1234567890"
	DefaultAdminPassword = "adminPassword"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	cfg.Database.DSN = os.Getenv("DB_DSN")
	if cfg.Database.DSN == "" {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	tokenExpiry, err := time.ParseDuration(stringEnv("JWT_TOKEN_EXPIRY", "30000s"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TOKEN_EXPIRY: %w", err)
	}
	cfg.JWT.TokenExpiry = tokenExpiry

	// Upload configuration
	cfg.Upload.Dir = stringEnv("UPLOAD_DIR", "uploads")
	maxImageSize, err := intEnv("MAX_IMAGE_SIZE", 1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.Upload.MaxImageSize = int64(maxImageSize)

	// Admin bootstrap configuration
	cfg.Admin.Email = stringEnv("ADMIN_EMAIL", DefaultAdminEmail)
	cfg.Admin.Phone = stringEnv("ADMIN_PHONE", DefaultAdminPhone)
	cfg.Admin.Password = stringEnv("ADMIN_PASSWORD", DefaultAdminPassword)

	// Redis configuration (optional, enables the cleanup queue)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	redisPort, err := intEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// Cleanup configuration
	workers, err := intEnv("CLEANUP_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Cleanup.Workers = workers
	// An explicitly empty schedule disables the sweep
	if schedule, ok := os.LookupEnv("CLEANUP_SWEEP_SCHEDULE"); ok {
		cfg.Cleanup.SweepSchedule = strings.TrimSpace(schedule)
	} else {
		cfg.Cleanup.SweepSchedule = "@daily"
	}
	grace, err := time.ParseDuration(stringEnv("CLEANUP_SWEEP_GRACE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_SWEEP_GRACE: %w", err)
	}
	cfg.Cleanup.SweepGrace = grace

	// Rate limit configuration
	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = rateLimit

	return cfg, nil
}

func loadDatabase(cfg *Config) error {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// parseOrigins parses comma-separated origins, allowing all origins when none are valid
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// UsesDefaultAdminPassword reports whether the admin account would be created with the well-known password
func (c *Config) UsesDefaultAdminPassword() bool {
	return c.Admin.Password == DefaultAdminPassword
}
