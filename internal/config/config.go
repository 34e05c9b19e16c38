package config

import (
	"os"
	"time"

	"plan-banner-service/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort           string
	LogLevel             string
	SupabaseURL          string
	SupabaseKey          string
	DataDir              string
	SubscriptionFunction string
	PlanCacheTTL         time.Duration
	UsageCacheTTL        time.Duration
	RemoteTimeout        time.Duration
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:           getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:          getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:          getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		DataDir:              getEnvOrDefault("DATA_DIR", "./data"),
		SubscriptionFunction: getEnvOrDefault("SUBSCRIPTION_FUNCTION", "subscription-status"),
		PlanCacheTTL:         getEnvDurationOrDefault("PLAN_CACHE_TTL", 15*time.Minute),
		UsageCacheTTL:        getEnvDurationOrDefault("USAGE_CACHE_TTL", 5*time.Minute),
		RemoteTimeout:        getEnvDurationOrDefault("REMOTE_TIMEOUT", 10*time.Second),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetDataDir returns the directory holding the local dismissal store
func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

// GetSubscriptionFunction returns the name of the subscription-status function
func (c *AppConfig) GetSubscriptionFunction() string {
	return c.SubscriptionFunction
}

// GetPlanCacheTTL returns how long a resolved plan state stays cached
func (c *AppConfig) GetPlanCacheTTL() time.Duration {
	return c.PlanCacheTTL
}

// GetUsageCacheTTL returns how long fetched usage counters stay cached
func (c *AppConfig) GetUsageCacheTTL() time.Duration {
	return c.UsageCacheTTL
}

// GetRemoteTimeout returns the per-call timeout for the subscription source
func (c *AppConfig) GetRemoteTimeout() time.Duration {
	return c.RemoteTimeout
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
