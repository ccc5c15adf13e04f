package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
	Cache     *CacheStatus     `json:"cache,omitempty"`
	Warmup    *WarmupStatus    `json:"warmup,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState,omitempty"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}

// CacheStatus summarises the report cache.
type CacheStatus struct {
	Entries      int `json:"entries"`
	FreshEntries int `json:"freshEntries"`
}

// WarmupStatus summarises scheduled cache warm-up runs.
type WarmupStatus struct {
	TotalRuns         int64      `json:"totalRuns"`
	SuccessfulPoints  int64      `json:"successfulPoints"`
	FailedPoints      int64      `json:"failedPoints"`
	IncompleteReports int64      `json:"incompleteReports"`
	LastRunAt         *Timestamp `json:"lastRunAt,omitempty"`
	LastRunDurationMs int64      `json:"lastRunDurationMs"`
}
