package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value. The
// loaders never fail: a value that does not parse or validate falls back to
// the default, with one warning per fallback so callers can log and count
// them. Value holds the final value either way.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func okResult(value interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: value}
}

func fallbackResult(value interface{}, warning string) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           value,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}

// LoadEnvString reads a string environment variable, returning the default
// when it is unset or empty. No validation is applied; use
// LoadEnvWithFallback when a validator is needed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string environment variable and runs it
// through validator (which may be nil). An unset variable yields the default
// silently; a value that fails validation yields the default with a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return okResult(defaultValue)
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%s'",
				envKey, value, err, defaultValue))
		}
	}
	return okResult(value)
}

// LoadEnvDuration reads a Go duration string ("30s", "1h30m") from an
// environment variable. Parse or validation failures fall back to the
// default with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return okResult(defaultValue)
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, valueStr, err, defaultValue))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, valueStr, err, defaultValue))
		}
	}
	return okResult(parsed)
}

// LoadEnvInt reads an integer from an environment variable. Parse or
// validation failures fall back to the default with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return okResult(defaultValue)
	}

	var parsed int
	if _, err := fmt.Sscanf(valueStr, "%d", &parsed); err != nil {
		return fallbackResult(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': invalid integer format, falling back to default '%d'",
			envKey, valueStr, defaultValue))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%d'",
				envKey, valueStr, err, defaultValue))
		}
	}
	return okResult(parsed)
}

// LoadEnvBool reads a boolean from an environment variable. Accepted true
// values are "1", "t", "T", "true", "TRUE", "True"; accepted false values
// are the corresponding zero forms. Anything else falls back to the default
// with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return okResult(defaultValue)
	}

	switch valueStr {
	case "1", "t", "T", "true", "TRUE", "True":
		return okResult(true)
	case "0", "f", "F", "false", "FALSE", "False":
		return okResult(false)
	default:
		return fallbackResult(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': invalid boolean format, expected 'true' or 'false', falling back to default '%t'",
			envKey, valueStr, defaultValue))
	}
}
