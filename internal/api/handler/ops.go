// Package handler provides HTTP handlers for the PrivacyGuard API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/privacyguard/privacyguard/internal/api/models"
	"github.com/privacyguard/privacyguard/internal/api/response"
	"github.com/privacyguard/privacyguard/internal/provider/resilience"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

type idleTTLer interface {
	IdleTTL() time.Duration
}

// OpsConfig holds the dependencies of the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string
	Sessions  SessionCounter
	Providers *resilience.Registry // optional
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	sessions  SessionCounter
	providers *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		sessions:  cfg.Sessions,
		providers: cfg.Providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.version,
		BuildTime: h.buildTime,
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if _, err := h.sessions.Count(r.Context()); err != nil {
		health.Status = models.HealthStatusFail
		health.Checks = map[string]string{"sessions": err.Error()}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.OK(w, r, health)
}

// SystemStatus handles GET /v1/ops/status - session store and upstream status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Sessions:  h.sessionStatus(r.Context()),
		Providers: []models.ProviderStatus{},
	}
	if status.Sessions.Status != models.HealthStatusOK {
		status.Status = models.HealthStatusFail
	}

	if h.providers != nil {
		for _, ph := range h.providers.All() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.OK(w, r, status)
}

func (h *OpsHandler) sessionStatus(ctx context.Context) models.SessionsStatus {
	var st models.SessionsStatus
	if t, ok := h.sessions.(idleTTLer); ok {
		st.IdleTTL = t.IdleTTL().String()
	}

	count, err := h.sessions.Count(ctx)
	if err != nil {
		msg := err.Error()
		st.Status = models.HealthStatusFail
		st.Error = &msg
		return st
	}
	st.Status = models.HealthStatusOK
	st.Active = count
	return st
}

func providerStatus(ph resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		Breaker:             ph.State.String(),
		ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
		LastSuccessAt:       models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(ph.LastFailureAt),
	}

	switch {
	case ph.Degraded():
		ps.Status = models.HealthStatusDegraded
	case !ph.Healthy():
		ps.Status = models.HealthStatusFail
	}

	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
