package main

import (
	"image_editor/internal/config" // Custom import path (Config)
	"image_editor/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.MustLoad() // Load configuration

	database, err := db.Open(cfg) // MySQL or sqlite, per USE_MYSQL
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("%v", err)
	}
}
