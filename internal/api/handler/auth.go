package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/privacyguard/privacyguard/internal/api/models"
	"github.com/privacyguard/privacyguard/internal/api/response"
	"github.com/privacyguard/privacyguard/internal/auth"
	"github.com/privacyguard/privacyguard/internal/session"
)

// AccessService logs visitors in and out.
type AccessService interface {
	Login(ctx context.Context, req *auth.AccessRequest) (*auth.TokenResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService AccessService
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService AccessService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Access handles POST /v1/auth/access - exchange an access code for a
// session token.
func (h *AuthHandler) Access(w http.ResponseWriter, r *http.Request) {
	var req auth.AccessRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	tokenResp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(w, r, "validation error", toFieldErrors(verr.Errors))
		case errors.Is(err, auth.ErrInvalidAccessCode):
			response.Unauthorized(w, r, auth.ErrInvalidAccessCode.Error())
		case errors.Is(err, auth.ErrVerifierUnavailable):
			response.ServiceUnavailable(w, r, "unable to verify the access code at this time", 30)
		case errors.Is(err, session.ErrSessionLimitReached):
			response.ServiceUnavailable(w, r, "the simulator is at capacity, please try again later", 60)
		default:
			h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("login failed")
			response.InternalError(w, r, "authentication failed")
		}
		return
	}

	response.OK(w, r, tokenResp)
}

// Logout handles POST /v1/auth/logout - end the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	if sessionID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), sessionID); err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("logout failed")
		response.InternalError(w, r, "logout failed")
		return
	}

	response.NoContent(w, r)
}

func toFieldErrors(errs []auth.FieldError) []models.FieldError {
	out := make([]models.FieldError, len(errs))
	for i, e := range errs {
		out[i] = models.FieldError{
			Field:   e.Field,
			Message: e.Message,
			Code:    e.Code,
		}
	}
	return out
}
