package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string // service role key, server-side only
	SupabaseAnonKey string // anon key used by the session client
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	// Login convenience: the literal login "admin" is mapped to this email
	// before the password grant. Not a security boundary.
	AdminEmail string
	// Blob storage buckets
	DocumentsBucket string
	ImagesBucket    string
	// Session bootstrap deadlines. The first deadline surfaces the
	// "continue anyway" escape hatch, the second forces a signed-out
	// ready state.
	BootstrapEscapeHatch time.Duration
	BootstrapForceReady  time.Duration
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		DocumentsBucket: getEnv("DOCUMENTS_BUCKET", "documents"),
		ImagesBucket:    getEnv("IMAGES_BUCKET", "images"),
		// 5s matches the original safety timeout; the forced fallback
		// fires at double that unless overridden.
		BootstrapEscapeHatch: getDuration("BOOTSTRAP_ESCAPE_HATCH_MS", 5*time.Second),
		BootstrapForceReady:  getDuration("BOOTSTRAP_FORCE_READY_MS", 10*time.Second),
		Debug:                getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
