package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Digest schedules.
const (
	DigestOff    = "off"
	DigestDaily  = "daily"
	DigestWeekly = "weekly"
)

var languages = []string{"ko", "en", "ja", "zh"}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string   `yaml:"port"`
	Debug           bool     `yaml:"debug"`
	DefaultLanguage string   `yaml:"default_language"`
	CORSOrigins     []string `yaml:"cors_origins"`

	// Scrape API
	SelaBaseURL       string        `yaml:"sela_api_base_url"`
	SelaAPIKey        string        `yaml:"sela_api_key"`
	SelaPrincipalID   string        `yaml:"sela_principal_id"`
	SelaRateLimit     float64       `yaml:"sela_rate_limit"`
	SelaBurst         int           `yaml:"sela_burst"`
	SelaScrapeTimeout time.Duration `yaml:"sela_scrape_timeout"`
	ProfilePostCount  int           `yaml:"profile_post_count"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`

	// Cache
	ProfileCacheTTL    time.Duration `yaml:"profile_cache_ttl"`
	ContextCacheTTL    time.Duration `yaml:"context_cache_ttl"`
	SuggestionCacheTTL time.Duration `yaml:"suggestion_cache_ttl"`
	LocalCacheSweep    time.Duration `yaml:"local_cache_sweep"`

	// Shared storage: Azure when an account is set, SQLite otherwise
	StorageAccount   string `yaml:"azure_storage_account"`
	StorageContainer string `yaml:"azure_storage_container"`
	CacheDBPath      string `yaml:"cache_db_path"`

	// LLM provider for suggestions and rewrites
	LLMProvider string `yaml:"llm_provider"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LLMModel    string `yaml:"llm_model"`
	LLMBaseURL  string `yaml:"llm_base_url"`

	LLMTimeout        time.Duration `yaml:"llm_timeout"`
	SuggestionTimeout time.Duration `yaml:"suggestion_timeout"`

	// Schedule configuration
	CleanupSchedule string        `yaml:"cleanup_schedule"`
	DigestSchedule  string        `yaml:"digest_schedule"` // "off", "daily" or "weekly"
	UsageRetention  time.Duration `yaml:"usage_retention"`

	// Notification configuration
	TeamsWebhookURL   string `yaml:"teams_webhook_url"`
	NotificationEmail string `yaml:"notification_email"`
	SMTPHost          string `yaml:"smtp_host"`
	SMTPPort          int    `yaml:"smtp_port"`
	SMTPUsername      string `yaml:"smtp_username"`
	SMTPPassword      string `yaml:"smtp_password"`
}

// Load loads configuration from environment variables, then applies the YAML
// file named by CONFIG_FILE on top.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Debug:           getBoolEnv("DEBUG", false),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "ko"),
		CORSOrigins:     getSliceEnv("CORS_ORIGINS", []string{"*"}),

		SelaBaseURL:       getEnv("SELA_API_BASE_URL", ""),
		SelaAPIKey:        getEnv("SELA_API_KEY", ""),
		SelaPrincipalID:   getEnv("SELA_PRINCIPAL_ID", ""),
		SelaRateLimit:     getFloatEnv("SELA_RATE_LIMIT", 2),
		SelaBurst:         getIntEnv("SELA_BURST", 5),
		SelaScrapeTimeout: getDurationEnv("SELA_SCRAPE_TIMEOUT", 60*time.Second),
		ProfilePostCount:  getIntEnv("PROFILE_POST_COUNT", 20),
		FetchTimeout:      getDurationEnv("FETCH_TIMEOUT", 10*time.Second),

		ProfileCacheTTL:    getDurationEnv("PROFILE_CACHE_TTL", time.Hour),
		ContextCacheTTL:    getDurationEnv("CONTEXT_CACHE_TTL", 15*time.Minute),
		SuggestionCacheTTL: getDurationEnv("SUGGESTION_CACHE_TTL", time.Hour),
		LocalCacheSweep:    getDurationEnv("LOCAL_CACHE_SWEEP", 5*time.Minute),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "xeo-cache"),
		CacheDBPath:      getEnv("CACHE_DB_PATH", "xeo-cache.db"),

		LLMProvider: getEnv("LLM_PROVIDER", "none"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),

		LLMTimeout:        getDurationEnv("LLM_TIMEOUT", 60*time.Second),
		SuggestionTimeout: getDurationEnv("SUGGESTION_TIMEOUT", 10*time.Second),

		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "0 0 * * * *"),
		DigestSchedule:  getEnv("DIGEST_SCHEDULE", DigestOff),
		UsageRetention:  getDurationEnv("USAGE_RETENTION", 30*24*time.Hour),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyFile overlays keys present in the YAML file; absent keys keep their
// environment values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// NotificationsEnabled reports whether any digest channel is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func (c *Config) validate() error {
	switch c.DigestSchedule {
	case DigestOff, DigestDaily, DigestWeekly:
	default:
		return fmt.Errorf("DIGEST_SCHEDULE must be 'off', 'daily' or 'weekly'")
	}

	if c.DigestSchedule != DigestOff && !c.NotificationsEnabled() {
		return fmt.Errorf("a usage digest requires TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	valid := false
	for _, l := range languages {
		if c.DefaultLanguage == l {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("DEFAULT_LANGUAGE must be one of %s", strings.Join(languages, ", "))
	}

	switch strings.ToLower(c.LLMProvider) {
	case "", "none":
	case "openai", "anthropic":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required when LLM_PROVIDER is %s", c.LLMProvider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be 'none', 'openai' or 'anthropic'")
	}

	for name, ttl := range map[string]time.Duration{
		"PROFILE_CACHE_TTL":    c.ProfileCacheTTL,
		"CONTEXT_CACHE_TTL":    c.ContextCacheTTL,
		"SUGGESTION_CACHE_TTL": c.SuggestionCacheTTL,
		"LOCAL_CACHE_SWEEP":    c.LocalCacheSweep,
		"FETCH_TIMEOUT":        c.FetchTimeout,
		"LLM_TIMEOUT":          c.LLMTimeout,
		"SUGGESTION_TIMEOUT":   c.SuggestionTimeout,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.ProfilePostCount <= 0 {
		return fmt.Errorf("PROFILE_POST_COUNT must be positive")
	}

	return nil
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
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
