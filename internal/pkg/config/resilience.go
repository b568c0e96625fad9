package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fixturecast/internal/resilience"
)

// ResilienceFile is the on-disk shape of an optional resilience.yaml.
// Every field is a pointer or zero-value-skippable so that an operator can
// override a single knob for a single service without restating defaults.
type ResilienceFile struct {
	// HonorRetryAfter switches rate-limit backoff to header-aware mode for
	// every service.
	HonorRetryAfter *bool `yaml:"honor_retry_after"`

	// Services maps a service name to its overrides. Unknown service names
	// are rejected at load time.
	Services map[string]ServiceOverrides `yaml:"services"`
}

// ServiceOverrides holds the per-service tunables an operator may change.
type ServiceOverrides struct {
	Circuit *CircuitOverrides `yaml:"circuit"`
	Retry   *RetryOverrides   `yaml:"retry"`
}

// CircuitOverrides adjusts circuit breaker behavior for one service.
type CircuitOverrides struct {
	FailureThreshold          *int           `yaml:"failure_threshold"`
	ResetTimeout              *time.Duration `yaml:"reset_timeout"`
	RequiredHalfOpenSuccesses *int           `yaml:"half_open_successes"`
}

// RetryOverrides adjusts retry behavior for one service.
type RetryOverrides struct {
	MaxRetries *int           `yaml:"max_retries"`
	BaseDelay  *time.Duration `yaml:"base_delay"`
	MaxDelay   *time.Duration `yaml:"max_delay"`
}

// LoadResilienceFile reads and validates a resilience.yaml. A missing file
// is not an error; callers get an empty override set and run on defaults.
// A file that exists but fails to parse or validate is an error, because a
// silently ignored override is worse than a failed start.
func LoadResilienceFile(path string) (*ResilienceFile, error) {
	if path == "" {
		return &ResilienceFile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ResilienceFile{}, nil
		}
		return nil, fmt.Errorf("read resilience config %s: %w", path, err)
	}

	var file ResilienceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse resilience config %s: %w", path, err)
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("invalid resilience config %s: %w", path, err)
	}
	return &file, nil
}

func (f *ResilienceFile) validate() error {
	for name, svc := range f.Services {
		if _, err := resilience.ParseService(name); err != nil {
			return err
		}
		if c := svc.Circuit; c != nil {
			if c.FailureThreshold != nil && *c.FailureThreshold < 1 {
				return fmt.Errorf("service %q: failure_threshold must be at least 1", name)
			}
			if c.ResetTimeout != nil && *c.ResetTimeout <= 0 {
				return fmt.Errorf("service %q: reset_timeout must be positive", name)
			}
			if c.RequiredHalfOpenSuccesses != nil && *c.RequiredHalfOpenSuccesses < 1 {
				return fmt.Errorf("service %q: half_open_successes must be at least 1", name)
			}
		}
		if r := svc.Retry; r != nil {
			if r.MaxRetries != nil && *r.MaxRetries < 0 {
				return fmt.Errorf("service %q: max_retries must not be negative", name)
			}
			if r.BaseDelay != nil && *r.BaseDelay <= 0 {
				return fmt.Errorf("service %q: base_delay must be positive", name)
			}
			if r.MaxDelay != nil && *r.MaxDelay <= 0 {
				return fmt.Errorf("service %q: max_delay must be positive", name)
			}
		}
	}
	return nil
}

// Overrides returns the override block for a service, or nil when the file
// has none for it.
func (f *ResilienceFile) Overrides(service string) *ServiceOverrides {
	if f == nil || f.Services == nil {
		return nil
	}
	svc, ok := f.Services[service]
	if !ok {
		return nil
	}
	return &svc
}
