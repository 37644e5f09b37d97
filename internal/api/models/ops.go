package models

// Health is the body of the liveness and readiness probes.
type Health struct {
	Status    HealthStatus      `json:"status"`
	Time      Timestamp         `json:"time"`
	Version   string            `json:"version,omitempty"`
	BuildTime string            `json:"buildTime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"` // failing checks only
}

// SystemStatus reports the session store and the upstream verifier.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Sessions  SessionsStatus   `json:"sessions"`
	Providers []ProviderStatus `json:"providers"`
}

// SessionsStatus describes the live session store.
type SessionsStatus struct {
	Status  HealthStatus `json:"status"`
	Active  int          `json:"active"`
	IdleTTL string       `json:"idleTtl,omitempty"`
	Error   *string      `json:"error,omitempty"`
}

// ProviderStatus describes an upstream behind a circuit breaker.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	Breaker             string       `json:"breaker"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}
