package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKTALK_SERVER_PORT.
const EnvPrefix = "TASKTALK"

// defaults doubles as the list of known keys so AutomaticEnv can bind every one.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 10,
	"database.url":                    "",
	"auth.jwt_secret":                 "",
	"auth.token_lifetime_minutes":     60,
	"auth.admin_ids":                  []int64{},
	"llm.provider":                    "gemini",
	"llm.gemini_api_key":              "",
	"llm.openai_api_key":              "",
	"llm.model_name":                  "",
	"llm.max_retries":                 3,
	"llm.retry_delay_seconds":         1,
	"llm.request_timeout_seconds":     30,
	"llm.history_limit":               20,
	"cache.max_size":                  100,
	"cache.ttl_seconds":               300,
	"monitor.window_size":             1000,
	"monitor.slow_threshold_ms":       1000,
	"monitor.report_schedule":         "@every 5m",
	"telemetry.enabled":               false,
	"telemetry.exporter":              "none",
	"telemetry.endpoint":              "",
	"telemetry.service_name":          "tasktalk-api",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration using a caller-supplied viper instance.
func LoadWith(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
