package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// validateConfig checks the settings the adapter cannot run without.
// Out-of-range retry settings only warn; defaults are applied later.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "missing Gemini API key")
		return fmt.Errorf("%w: gemini API key cannot be empty", understanding.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "invalid max_retries value, using default",
			"value", cfg.MaxRetries)
	}
	if cfg.RetryDelaySeconds < 0 {
		logger.WarnContext(ctx, "invalid retry_delay_seconds value, using default",
			"value", cfg.RetryDelaySeconds)
	}
	return nil
}
