package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"     validate:"required"`
	Monitor   MonitorConfig   `mapstructure:"monitor"   validate:"required"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	// AdminIDs may clear the response cache. Empty disables clearing.
	AdminIDs []int64 `mapstructure:"admin_ids" validate:"dive,gt=0"`
}

// LLMConfig selects and configures the understanding service provider.
type LLMConfig struct {
	Provider              string `mapstructure:"provider"                validate:"required,oneof=gemini openai"`
	GeminiAPIKey          string `mapstructure:"gemini_api_key"          validate:"required_if=Provider gemini"`
	OpenAIAPIKey          string `mapstructure:"openai_api_key"          validate:"required_if=Provider openai"`
	ModelName             string `mapstructure:"model_name"`
	MaxRetries            int    `mapstructure:"max_retries"             validate:"gte=0,lte=10"`
	RetryDelaySeconds     int    `mapstructure:"retry_delay_seconds"     validate:"gte=0"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	HistoryLimit          int    `mapstructure:"history_limit"           validate:"gt=0,lte=200"`
}

// CacheConfig sizes the response cache.
type CacheConfig struct {
	MaxSize    int `mapstructure:"max_size"    validate:"gt=0"`
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gt=0"`
}

// MonitorConfig controls latency sampling and periodic reports.
type MonitorConfig struct {
	WindowSize      int    `mapstructure:"window_size"       validate:"gt=0"`
	SlowThresholdMS int    `mapstructure:"slow_threshold_ms" validate:"gt=0"`
	ReportSchedule  string `mapstructure:"report_schedule"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Exporter    string `mapstructure:"exporter"     validate:"omitempty,oneof=none stdout otlp"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// RequestTimeout returns the per-round-trip timeout.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryDelay returns the base retry backoff.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SlowThreshold returns the slow-call threshold.
func (c MonitorConfig) SlowThreshold() time.Duration {
	return time.Duration(c.SlowThresholdMS) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
