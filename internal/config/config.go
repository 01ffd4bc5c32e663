package config

import (
	"errors"  // Validation errors
	"fmt"     // Error wrapping
	"strings" // String manipulation
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
	"github.com/spf13/viper"   // Typed environment lookup with defaults
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	IsProd           bool          // Is production environment
	TrustedProxies   []string      // Proxies Gin trusts for client IPs
	JWTSecret        string        // Session token signing secret
	TokenTTL         time.Duration // Session token lifetime
	BcryptCost       int           // Password hashing cost
	UseMySQL         bool          // MySQL when true, sqlite otherwise
	SQLitePath       string        // sqlite database file
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	RedisAddr        string        // Redis server address, empty disables caching
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	ProjectCacheTTL  time.Duration // Lifetime of cached project loads
	UploadFolder     string        // Local upload directory
	MaxContentLength int64         // Maximum request body size in bytes
	StorageBackend   string        // local or minio
	MinIO            MinIOConfig   // Object storage settings
	AuthRatePerSec   float64       // Allowed auth requests per second per client
	AuthRateBurst    int           // Burst size for auth requests
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage
type MinIOConfig struct {
	Endpoint        string // host:port
	AccessKeyID     string // Access key
	SecretAccessKey string // Secret key
	UseSSL          bool   // HTTPS when true
	Bucket          string // Upload bucket
}

// Storage backends
const (
	StorageLocal = "local" // Files under UploadFolder
	StorageMinIO = "minio" // Objects in a MinIO bucket
)

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// Load reads configuration from the environment, after loading a .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	v := viper.New()    // Isolated viper instance
	setDefaults(v)      // Register defaults
	v.AutomaticEnv()    // Every key maps to the env var of the same name

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		IsProd:           v.GetBool("IS_PROD"),
		TrustedProxies:   splitList(v.GetString("TRUSTED_PROXIES")),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		UseMySQL:         v.GetBool("USE_MYSQL"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBName:           v.GetString("DB_NAME"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPass:        v.GetString("REDIS_PASS"),
		RedisDB:          v.GetInt("REDIS_DB"),
		ProjectCacheTTL:  v.GetDuration("PROJECT_CACHE_TTL"),
		UploadFolder:     v.GetString("UPLOAD_FOLDER"),
		MaxContentLength: v.GetInt64("MAX_CONTENT_LENGTH"),
		StorageBackend:   strings.ToLower(v.GetString("STORAGE_BACKEND")),
		MinIO: MinIOConfig{
			Endpoint:        v.GetString("MINIO_ENDPOINT"),
			AccessKeyID:     v.GetString("MINIO_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("MINIO_SECRET_ACCESS_KEY"),
			UseSSL:          v.GetBool("MINIO_USE_SSL"),
			Bucket:          v.GetString("MINIO_BUCKET"),
		},
		AuthRatePerSec: v.GetFloat64("AUTH_RATE_PER_SECOND"),
		AuthRateBurst:  v.GetInt("AUTH_RATE_BURST"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad wraps Load and panics on failure
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// setDefaults registers the fallback value of every key
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "5000")
	v.SetDefault("IS_PROD", false)
	v.SetDefault("TRUSTED_PROXIES", "127.0.0.1")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("USE_MYSQL", false)
	v.SetDefault("SQLITE_PATH", "image_editor.db")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "photoshop_web")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PROJECT_CACHE_TTL", "60s")
	v.SetDefault("UPLOAD_FOLDER", "static/uploads")
	v.SetDefault("MAX_CONTENT_LENGTH", 16*1024*1024)
	v.SetDefault("STORAGE_BACKEND", StorageLocal)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "uploads")
	v.SetDefault("AUTH_RATE_PER_SECOND", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AppPort == "" {
		return errors.New("APP_PORT is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxContentLength <= 0 {
		return errors.New("MAX_CONTENT_LENGTH must be positive")
	}
	if c.UseMySQL && (c.DBHost == "" || c.DBName == "") {
		return errors.New("DB_HOST and DB_NAME are required when USE_MYSQL is set")
	}
	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadFolder == "" {
			return errors.New("UPLOAD_FOLDER is required for local storage")
		}
	case StorageMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.AccessKeyID == "" || c.MinIO.SecretAccessKey == "" || c.MinIO.Bucket == "" {
			return errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY and MINIO_BUCKET are required for minio storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// splitList turns a comma separated value into a trimmed slice
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
