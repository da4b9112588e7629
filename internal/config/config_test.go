package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GO_ENV", "PORT", "DATABASE_URL", "SUPABASE_JWT_SECRET", "JWT_SECRET", "ALLOWED_ORIGINS",
		"STORAGE_ENDPOINT", "STORAGE_REGION", "STORAGE_BUCKET", "STORAGE_ACCESS_KEY_ID",
		"STORAGE_SECRET_ACCESS_KEY", "STORAGE_PUBLIC_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	assert.Equal(t, "development", cfg.GoEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "tussle-images", cfg.StorageBucket)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.DatabaseConfigured())
	assert.False(t, cfg.StorageConfigured())
	assert.Len(t, cfg.Warnings(), 3)
}

func TestFromEnv_Configured(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/tussles")
	t.Setenv("SUPABASE_JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "key")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "secret")

	cfg := FromEnv()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.DatabaseConfigured())
	assert.True(t, cfg.StorageConfigured())
	assert.Empty(t, cfg.Warnings())
}

func TestFromEnv_JWTSecretFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "fallback")

	assert.Equal(t, "fallback", FromEnv().JWTSecret)
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"*", []string{"*"}},
		{"https://app.example.com/", []string{"https://app.example.com"}},
		{" https://a.example.com , ,https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrigins(tt.raw))
		})
	}
}

func TestAllowAllOrigins(t *testing.T) {
	assert.True(t, (&Config{AllowedOrigins: []string{"https://a.example.com", "*"}}).AllowAllOrigins())
	assert.False(t, (&Config{AllowedOrigins: []string{"https://a.example.com"}}).AllowAllOrigins())
}
