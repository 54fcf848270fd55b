package resilience

import "time"

// FromCircuitConfig converts config values to a CircuitBreakerConfig. Zero
// values keep the defaults.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := CircuitBreakerConfig{
		FailureThreshold: defaultFailureThreshold,
		ResetTimeout:     defaultResetTimeout,
	}
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
