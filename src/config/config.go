package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/username/portfoliodesk/backend/src/models"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Upload limits
	MaxUploadSizeBytes int64

	// Portfolio settings
	DefaultAUM      float64
	SummaryCacheTTL time.Duration

	// Per-axis labels for positions with no value on that axis.
	FallbackSector          string
	FallbackIndustry        string
	FallbackTheme           string
	FallbackRiskCountry     string
	FallbackGicIndustry     string
	FallbackExchangeCountry string

	// HTTP settings
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	defaultAUM := getEnvAsFloat("DEFAULT_AUM", models.DefaultAUM)
	if defaultAUM <= 0 {
		log.Printf("WARNING: DEFAULT_AUM must be positive, got %v. Using %v.", defaultAUM, models.DefaultAUM)
		defaultAUM = models.DefaultAUM
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./portfoliodesk.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		MaxUploadSizeBytes: maxUploadSizeBytes,

		DefaultAUM:      defaultAUM,
		SummaryCacheTTL: getEnvAsDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		FallbackSector:          getEnv("FALLBACK_LABEL_SECTOR", models.DefaultFallbackLabels.Sector),
		FallbackIndustry:        getEnv("FALLBACK_LABEL_INDUSTRY", models.DefaultFallbackLabels.Industry),
		FallbackTheme:           getEnv("FALLBACK_LABEL_THEME", models.DefaultFallbackLabels.Theme),
		FallbackRiskCountry:     getEnv("FALLBACK_LABEL_RISK_COUNTRY", models.DefaultFallbackLabels.RiskCountry),
		FallbackGicIndustry:     getEnv("FALLBACK_LABEL_GIC_INDUSTRY", models.DefaultFallbackLabels.GicIndustry),
		FallbackExchangeCountry: getEnv("FALLBACK_LABEL_EXCHANGE_COUNTRY", models.DefaultFallbackLabels.ExchangeCountry),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, DefaultAUM=%.0f",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DefaultAUM)
}

// FallbackLabels returns the per-axis placeholder names used by the summary rollup.
func (c *AppConfig) FallbackLabels() models.FallbackLabels {
	return models.FallbackLabels{
		Sector:          c.FallbackSector,
		Industry:        c.FallbackIndustry,
		Theme:           c.FallbackTheme,
		RiskCountry:     c.FallbackRiskCountry,
		GicIndustry:     c.FallbackGicIndustry,
		ExchangeCountry: c.FallbackExchangeCountry,
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves and parses a comma-separated list.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
