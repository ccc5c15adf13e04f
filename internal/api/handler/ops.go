package handler

import (
	"net/http"
	"time"

	"github.com/envicheck/envicheck/internal/api/models"
	"github.com/envicheck/envicheck/internal/api/response"
	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/provider/resilience"
	"github.com/envicheck/envicheck/internal/warmup"
)

// CacheStatsSource exposes report cache statistics.
type CacheStatsSource interface {
	CacheStats() environment.CacheStats
}

// WarmupStatsSource exposes warm-up run statistics.
type WarmupStatsSource interface {
	GetMetrics() warmup.MetricsSnapshot
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	cache     CacheStatsSource
	warmup    WarmupStatsSource
}

// NewOpsHandler creates a new OpsHandler. registry, cache and warm may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, cache CacheStatsSource, warm WarmupStatsSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		cache:     cache,
		warmup:    warm,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is not ready when every registered provider has an open circuit.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.overallStatus(h.providerStatuses())
	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if status == models.HealthStatusFail {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.providerStatuses()
	status := models.SystemStatus{
		Status:    h.overallStatus(providers),
		Time:      models.Timestamp(time.Now()),
		Providers: providers,
	}
	if h.cache != nil {
		stats := h.cache.CacheStats()
		status.Cache = &models.CacheStatus{
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		}
	}
	if h.warmup != nil {
		m := h.warmup.GetMetrics()
		status.Warmup = &models.WarmupStatus{
			TotalRuns:         m.TotalRuns,
			SuccessfulPoints:  m.SuccessfulPoints,
			FailedPoints:      m.FailedPoints,
			IncompleteReports: m.IncompleteReports,
			LastRunDurationMs: m.LastRunDuration.Milliseconds(),
		}
		if !m.LastRunAt.IsZero() {
			status.Warmup.LastRunAt = timestampPtr(&m.LastRunAt)
		}
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	statuses := []models.ProviderStatus{}
	if h.registry == nil {
		return statuses
	}

	for _, health := range h.registry.GetAllHealth() {
		ps := models.ProviderStatus{
			Provider:            health.Name,
			CircuitState:        health.CircuitState.String(),
			ConsecutiveFailures: health.Counts.ConsecutiveFailures,
			LastSuccessAt:       timestampPtr(health.LastSuccessAt),
			LastFailureAt:       timestampPtr(health.LastFailureAt),
		}
		switch {
		case health.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case health.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		default:
			ps.Status = models.HealthStatusOK
		}
		if health.LastError != "" {
			msg := health.LastError
			ps.Message = &msg
		}
		statuses = append(statuses, ps)
	}
	return statuses
}

// overallStatus is FAIL when every provider has an open circuit, DEGRADED
// when any provider is not OK, and OK otherwise.
func (h *OpsHandler) overallStatus(providers []models.ProviderStatus) models.HealthStatus {
	if len(providers) == 0 {
		return models.HealthStatusOK
	}
	failed, notOK := 0, 0
	for _, p := range providers {
		if p.Status == models.HealthStatusFail {
			failed++
		}
		if p.Status != models.HealthStatusOK {
			notOK++
		}
	}
	switch {
	case failed == len(providers):
		return models.HealthStatusFail
	case notOK > 0:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
