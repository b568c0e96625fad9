package worker

import (
	"fmt"
	"log/slog"
	"time"

	"fixturecast/internal/pkg/config"
)

// JanitorConfig controls the dead-letter maintenance schedule.
//
// All fields have defaults and validation rules so the janitor can start
// safely even with invalid or missing configuration (fail-open strategy:
// invalid values fall back to defaults with a warning, never an error).
type JanitorConfig struct {
	// SweepSchedule is the cron expression for the retention sweep.
	// Format: "minute hour day month weekday"
	// Default: "*/10 * * * *" (every 10 minutes)
	SweepSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "UTC"
	Timezone string

	// Retention is how long dead-letter entries are kept before the sweep
	// removes them. Default: 168h (7 days).
	Retention time.Duration

	// SweepTimeout bounds a single sweep run. Default: 5 minutes.
	SweepTimeout time.Duration

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultJanitorConfig returns production-ready defaults: a 10-minute sweep
// cadence with a 7-day retention window.
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		SweepSchedule: "*/10 * * * *",
		Timezone:      "UTC",
		Retention:     7 * 24 * time.Hour,
		SweepTimeout:  5 * time.Minute,
		HealthPort:    9091,
	}
}

// Validate checks the configuration. All field errors are collected and
// returned together.
func (c *JanitorConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sweep schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.Retention, time.Hour, 90*24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("retention: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.SweepTimeout); err != nil {
		errs = append(errs, fmt.Errorf("sweep timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadJanitorConfigFromEnv loads janitor configuration from environment
// variables with validation and fallback to defaults on failure.
//
// Environment variables:
//   - DLQ_SWEEP_SCHEDULE: Cron expression (default: "*/10 * * * *")
//   - DLQ_TIMEZONE: IANA timezone name (default: "UTC")
//   - DLQ_RETENTION: Duration string, e.g. "168h" (default: 7 days)
//   - DLQ_SWEEP_TIMEOUT: Duration string (default: "5m")
//   - JANITOR_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//
// Never returns an error: invalid values fall back to defaults, log a
// warning and increment the config fallback metrics.
func LoadJanitorConfigFromEnv(logger *slog.Logger, metrics *JanitorMetrics) (*JanitorConfig, error) {
	cfg := DefaultJanitorConfig()
	fallbackApplied := false

	warn := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("DLQ_SWEEP_SCHEDULE", cfg.SweepSchedule, config.ValidateCronSchedule)
	cfg.SweepSchedule = result.Value.(string)
	warn("sweep_schedule", result)

	result = config.LoadEnvWithFallback("DLQ_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	warn("timezone", result)

	result = config.LoadEnvDuration("DLQ_RETENTION", cfg.Retention, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Hour, 90*24*time.Hour)
	})
	cfg.Retention = result.Value.(time.Duration)
	warn("retention", result)

	result = config.LoadEnvDuration("DLQ_SWEEP_TIMEOUT", cfg.SweepTimeout, config.ValidatePositiveDuration)
	cfg.SweepTimeout = result.Value.(time.Duration)
	warn("sweep_timeout", result)

	result = config.LoadEnvInt("JANITOR_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	warn("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
