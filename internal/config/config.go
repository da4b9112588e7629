package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	GoEnv          string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string

	StorageEndpoint        string
	StorageRegion          string
	StorageBucket          string
	StorageAccessKeyID     string
	StorageSecretAccessKey string
	StoragePublicURL       string
}

// Load reads .env.<GO_ENV>, falling back to .env, then the process
// environment. Missing values are reported by Warnings, never as errors.
func Load() *Config {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	jwtSecret := getEnv("SUPABASE_JWT_SECRET", "")
	if jwtSecret == "" {
		jwtSecret = getEnv("JWT_SECRET", "")
	}

	return &Config{
		GoEnv:          getEnv("GO_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      jwtSecret,
		AllowedOrigins: ParseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		StorageEndpoint:        getEnv("STORAGE_ENDPOINT", ""),
		StorageRegion:          getEnv("STORAGE_REGION", "us-east-1"),
		StorageBucket:          getEnv("STORAGE_BUCKET", "tussle-images"),
		StorageAccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
		StorageSecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		StoragePublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
	}
}

// Warnings lists every missing setting that leaves part of the backend degraded.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.DatabaseURL == "" {
		warnings = append(warnings, "DATABASE_URL is not set: database calls will fail")
	}
	if c.JWTSecret == "" {
		warnings = append(warnings, "SUPABASE_JWT_SECRET is not set: every bearer token will be rejected")
	}
	if !c.StorageConfigured() {
		warnings = append(warnings, "STORAGE_ACCESS_KEY_ID/STORAGE_SECRET_ACCESS_KEY are not set: image uploads are disabled")
	}
	return warnings
}

// DatabaseConfigured reports whether a database URL was supplied.
func (c *Config) DatabaseConfigured() bool {
	return c.DatabaseURL != ""
}

// StorageConfigured reports whether object storage credentials were supplied.
func (c *Config) StorageConfigured() bool {
	return c.StorageAccessKeyID != "" && c.StorageSecretAccessKey != "" && c.StorageBucket != ""
}

// AllowAllOrigins is true when ALLOWED_ORIGINS contains "*".
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// ParseOrigins splits a comma separated origin list, dropping blanks and
// trailing slashes.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
