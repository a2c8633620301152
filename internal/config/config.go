package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port          string
	Debug         bool
	SessionSecret string
	SecureCookies bool

	// Store configuration
	StoreDriver string // "postgres" or "memory"
	DatabaseURL string

	// CSV ingestion
	DataDir           string
	CSVReloadSchedule string // standard 5-field cron expression, empty disables

	// Media storage. Azure is used when StorageAccount is set.
	StorageAccount   string
	StorageContainer string
	MediaDir         string

	// Generative AI
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Maps and directions
	GoogleMapsAPIKeys []string
	PlacesBaseURL     string
	PlacesRadius      int
	OpenRouteAPIKey   string
	OpenRouteBaseURL  string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Rate limiting for the AI and SOS endpoints
	RateLimitRPS   float64
	RateLimitBurst int

	// Cache lifetimes
	MapsCacheTTL       time.Duration
	WorkingKeyCacheTTL time.Duration
	GuideCacheTTL      time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Debug:         getBoolEnv("DEBUG", false),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-in-production"),
		SecureCookies: getBoolEnv("SECURE_COOKIES", false),

		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DataDir:           getEnv("DATA_DIR", "data"),
		CSVReloadSchedule: getEnv("CSV_RELOAD_SCHEDULE", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "media"),
		MediaDir:         getEnv("MEDIA_DIR", "uploads"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		GoogleMapsAPIKeys: mapsKeys(),
		PlacesBaseURL:     getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesRadius:      getIntEnv("PLACES_RADIUS", 5000),
		OpenRouteAPIKey:   getEnv("OPENROUTE_API_KEY", ""),
		OpenRouteBaseURL:  getEnv("OPENROUTE_BASE_URL", "https://api.openrouteservice.org/v2/directions"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 5),

		MapsCacheTTL:       getDurationEnv("MAPS_CACHE_TTL", time.Hour),
		WorkingKeyCacheTTL: getDurationEnv("WORKING_KEY_CACHE_TTL", 30*time.Minute),
		GuideCacheTTL:      getDurationEnv("GUIDE_CACHE_TTL", time.Hour),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is 'postgres'")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be 'postgres' or 'memory'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.CSVReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.CSVReloadSchedule); err != nil {
			return fmt.Errorf("CSV_RELOAD_SCHEDULE is not a valid cron expression: %w", err)
		}
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// PrimaryMapsKey returns the first configured maps key, or "" when none is set.
func (c *Config) PrimaryMapsKey() string {
	if len(c.GoogleMapsAPIKeys) == 0 {
		return ""
	}
	return c.GoogleMapsAPIKeys[0]
}

// mapsKeys collects GOOGLE_MAPS_API_KEY followed by any extra rotation keys
// in GOOGLE_MAPS_API_KEYS, dropping blanks and duplicates.
func mapsKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}

	add(os.Getenv("GOOGLE_MAPS_API_KEY"))
	for _, k := range getSliceEnv("GOOGLE_MAPS_API_KEYS", nil) {
		add(k)
	}
	return keys
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
