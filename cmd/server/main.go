package main

import (
	"context" // context package is needed for Redis operations

	"image_editor/internal/api"        // Custom package for API handlers
	"image_editor/internal/auth"       // Credential store
	"image_editor/internal/config"     // Custom package for configuration
	"image_editor/internal/db"         // Database connection and migrations
	"image_editor/internal/middleware" // Custom package for middleware
	"image_editor/internal/service"    // Project and image services
	"image_editor/internal/storage"    // Upload backends
	"image_editor/internal/store"      // Repositories

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.MustLoad() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
	}

	// Connect to the database and bring the schema up to date
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client, caching stays off without an address
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	// Upload storage backend
	var images storage.ImageStore
	switch cfg.StorageBackend {
	case config.StorageMinIO:
		images, err = storage.NewMinIOStore(cfg.MinIO)
	default:
		images, err = storage.NewLocalStore(cfg.UploadFolder)
	}
	if err != nil {
		logrus.Fatalf("failed to initialise %s storage: %v", cfg.StorageBackend, err)
	}

	// Services
	credentials := auth.NewCredentialStore(store.NewUserRepository(database), cfg.BcryptCost, redisClient)
	projects := service.NewProjectService(store.NewProjectRepository(database), redisClient, cfg.ProjectCacheTTL)
	uploads := service.NewImageService(images, projects, cfg.MaxContentLength)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Credentials: credentials,
		Projects:    projects,
		Images:      uploads,
		Session: api.SessionConfig{
			Secret:       cfg.JWTSecret,
			TTL:          cfg.TokenTTL,
			SecureCookie: cfg.IsProd,
		},
		MaxContentLength: cfg.MaxContentLength,
		AuthLimiter:      middleware.NewRateLimiter(cfg.AuthRatePerSec, cfg.AuthRateBurst),
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":    cfg.AppPort,        // Listen port
		"storage": cfg.StorageBackend, // Upload backend
		"cache":   redisClient != nil, // Project load cache
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
