package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.UseMySQL)
	assert.Equal(t, "static/uploads", cfg.UploadFolder)
	assert.Equal(t, int64(16*1024*1024), cfg.MaxContentLength)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, time.Minute, cfg.ProjectCacheTTL)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("USE_MYSQL", "true")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "editor")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY_ID", "key")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2,")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.True(t, cfg.UseMySQL)
	assert.Equal(t, StorageMinIO, cfg.StorageBackend)
	assert.Equal(t, "uploads", cfg.MinIO.Bucket)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "app:pw@tcp(db:3306)/editor?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"no secret":       {},
		"unknown backend": {"JWT_SECRET": "s", "STORAGE_BACKEND": "ftp"},
		"minio no keys":   {"JWT_SECRET": "s", "STORAGE_BACKEND": "minio"},
		"zero body limit": {"JWT_SECRET": "s", "MAX_CONTENT_LENGTH": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
