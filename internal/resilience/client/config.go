package client

import (
	"fixturecast/internal/pkg/config"
	"fixturecast/internal/resilience"
	"fixturecast/internal/resilience/circuit"
)

// CircuitConfigFor resolves the circuit configuration for a service, starting
// from the built-in per-service tuning and applying any file overrides on top.
func CircuitConfigFor(file *config.ResilienceFile, service resilience.Service) circuit.Config {
	cfg := defaultCircuitConfig(service)

	ov := file.Overrides(string(service))
	if ov == nil || ov.Circuit == nil {
		return cfg
	}
	if ov.Circuit.FailureThreshold != nil {
		cfg.FailureThreshold = *ov.Circuit.FailureThreshold
	}
	if ov.Circuit.ResetTimeout != nil {
		cfg.ResetTimeout = *ov.Circuit.ResetTimeout
	}
	if ov.Circuit.RequiredHalfOpenSuccesses != nil {
		cfg.RequiredHalfOpenSuccesses = *ov.Circuit.RequiredHalfOpenSuccesses
	}
	return cfg
}

// RetryPolicyFor resolves the retry policy for a service, applying any file
// overrides on top of the default policy.
func RetryPolicyFor(file *config.ResilienceFile, service resilience.Service) RetryPolicy {
	policy := DefaultRetryPolicy()

	ov := file.Overrides(string(service))
	if ov == nil || ov.Retry == nil {
		return policy
	}
	if ov.Retry.MaxRetries != nil {
		policy.MaxRetries = *ov.Retry.MaxRetries
	}
	if ov.Retry.BaseDelay != nil {
		policy.BaseDelay = *ov.Retry.BaseDelay
	}
	if ov.Retry.MaxDelay != nil {
		policy.MaxDelay = *ov.Retry.MaxDelay
	}
	return policy
}

// ApplyFile copies file-level client settings onto a client. Per-service
// settings are resolved per call via CircuitConfigFor and RetryPolicyFor.
func (c *Client) ApplyFile(file *config.ResilienceFile) {
	if file == nil || file.HonorRetryAfter == nil {
		return
	}
	c.HonorRetryAfter = *file.HonorRetryAfter
}

func defaultCircuitConfig(service resilience.Service) circuit.Config {
	switch service {
	case resilience.ServiceSportsData:
		return circuit.SportsDataConfig()
	case resilience.ServiceInference:
		return circuit.InferenceConfig()
	case resilience.ServiceContent:
		return circuit.ContentConfig()
	}
	return circuit.DefaultConfig()
}
