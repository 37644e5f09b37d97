package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/privacyguard/privacyguard/internal/api/middleware"
	"github.com/privacyguard/privacyguard/internal/api/models"
	"github.com/privacyguard/privacyguard/internal/api/response"
	"github.com/privacyguard/privacyguard/internal/session"
	"github.com/privacyguard/privacyguard/internal/simulator"
)

// SimulatorService runs simulator operations for a session.
type SimulatorService interface {
	Snapshot(ctx context.Context, sessionID string) (*simulator.Snapshot, error)
	Record(ctx context.Context, sessionID, recordID string) (simulator.Record, bool, error)
	History(ctx context.Context, sessionID string) ([]session.Event, error)
	SetConsent(ctx context.Context, sessionID string, consent simulator.ConsentID, granted bool) (*simulator.Snapshot, error)
	Anonymize(ctx context.Context, sessionID, recordID string) (*simulator.Snapshot, error)
	DeleteRecord(ctx context.Context, sessionID, recordID string) (*simulator.Snapshot, error)
	AnonymizeAll(ctx context.Context, sessionID string) (*simulator.Snapshot, error)
	DeleteWithoutConsent(ctx context.Context, sessionID string) (*simulator.Snapshot, error)
	Reset(ctx context.Context, sessionID string) (*simulator.Snapshot, error)
}

// SimulatorHandler exposes the session's simulator.
type SimulatorHandler struct {
	sessions SimulatorService
	logger   zerolog.Logger
}

// NewSimulatorHandler creates a new SimulatorHandler.
func NewSimulatorHandler(sessions SimulatorService, logger zerolog.Logger) *SimulatorHandler {
	return &SimulatorHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetState handles GET /v1/simulator.
func (h *SimulatorHandler) GetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(r.Context(), GetSessionID(r.Context()))
	h.writeState(w, r, snap, err)
}

// ListRecords handles GET /v1/simulator/records. Deleted records are listed
// only with ?include=deleted.
func (h *SimulatorHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	records := snap.ActiveRecords()
	if r.URL.Query().Get("include") == "deleted" {
		records = snap.Records
	}

	response.OK(w, r, models.RecordList{
		Items:  models.NewRecordViews(records),
		Counts: models.NewSimulatorCounts(snap.Counts),
	})
}

// GetRecord handles GET /v1/simulator/records/{recordId}.
func (h *SimulatorHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := h.sessions.Record(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "recordId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok || rec.IsDeleted {
		response.NotFound(w, r, "record not found")
		return
	}
	response.OK(w, r, models.NewRecordView(rec))
}

// ListConsents handles GET /v1/simulator/consents.
func (h *SimulatorHandler) ListConsents(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, r, models.ConsentList{Items: models.NewConsentViews(snap.Options, snap.Consents)})
}

// UpdateConsent handles PUT /v1/simulator/consents/{categoryId}. Unknown
// categories are accepted and leave the state unchanged.
func (h *SimulatorHandler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	categoryID := simulator.ConsentID(chi.URLParam(r, "categoryId"))
	if categoryID == simulator.ConsentEssential {
		response.BadRequest(w, r, "essential consent cannot be changed", []models.FieldError{{
			Field:   "categoryId",
			Message: "essential data is required to provide the service",
			Code:    "IMMUTABLE",
		}})
		return
	}

	var req models.ConsentUpdate
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	snap, err := h.sessions.SetConsent(r.Context(), GetSessionID(r.Context()), categoryID, *req.Granted)
	h.writeState(w, r, snap, err)
}

// AnonymizeRecord handles POST /v1/simulator/records/{recordId}/anonymize.
func (h *SimulatorHandler) AnonymizeRecord(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Anonymize(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "recordId"))
	h.writeState(w, r, snap, err)
}

// DeleteRecord handles DELETE /v1/simulator/records/{recordId}.
func (h *SimulatorHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.DeleteRecord(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "recordId"))
	h.writeState(w, r, snap, err)
}

// AnonymizeAll handles POST /v1/simulator/records/anonymize-all.
func (h *SimulatorHandler) AnonymizeAll(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.AnonymizeAll(r.Context(), GetSessionID(r.Context()))
	h.writeState(w, r, snap, err)
}

// DeleteWithoutConsent handles POST /v1/simulator/records/delete-without-consent.
func (h *SimulatorHandler) DeleteWithoutConsent(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.DeleteWithoutConsent(r.Context(), GetSessionID(r.Context()))
	h.writeState(w, r, snap, err)
}

// Reset handles POST /v1/simulator/reset.
func (h *SimulatorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Reset(r.Context(), GetSessionID(r.Context()))
	h.writeState(w, r, snap, err)
}

// GetHistory handles GET /v1/simulator/history.
func (h *SimulatorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.sessions.History(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	history := models.History{Items: make([]models.HistoryEvent, len(events))}
	for i, e := range events {
		history.Items[i] = models.HistoryEvent{
			Operation: string(e.Operation),
			Target:    e.Target,
			Applied:   e.Applied,
			Affected:  e.Affected,
			At:        models.Timestamp(e.At),
		}
	}
	response.OK(w, r, history)
}

func (h *SimulatorHandler) writeState(w http.ResponseWriter, r *http.Request, snap *simulator.Snapshot, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, r, models.NewSimulatorState(snap))
}

// writeError maps session errors to problems. A token whose session has
// expired or was ended is treated as unauthenticated.
func (h *SimulatorHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		response.Unauthorized(w, r, "session has expired, please sign in again")
		return
	}

	h.logger.Error().
		Err(err).
		Str("request_id", requestID(r)).
		Str("session_id", GetSessionID(r.Context())).
		Msg("simulator request failed")
	response.InternalError(w, r, "an unexpected error occurred")
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
