package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/privacyguard/privacyguard/internal/session"
)

// ErrInvalidAccessCode is returned when the code is wrong. The visitor may
// retry.
var ErrInvalidAccessCode = errors.New("invalid access code, please try again")

// ValidationError carries field errors for a malformed request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation error"
	}
	return "validation error: " + e.Errors[0].Message
}

// SessionManager starts and ends simulator sessions.
type SessionManager interface {
	Start(ctx context.Context) (*session.Session, error)
	End(ctx context.Context, id string) error
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Verifier   Verifier
	JWTService *JWTService
	Sessions   SessionManager
	Logger     zerolog.Logger
}

// Service gates access to the simulator.
type Service struct {
	verifier Verifier
	tokens   *JWTService
	sessions SessionManager
	logger   zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		verifier: cfg.Verifier,
		tokens:   cfg.JWTService,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
	}
}

// Login checks an access code and, when valid, starts a session and
// returns its token.
func (s *Service) Login(ctx context.Context, req *AccessRequest) (*TokenResponse, error) {
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	ok, err := s.verifier.Verify(ctx, req.AccessCode)
	if err != nil {
		s.logger.Error().Err(err).Msg("access code verification failed")
		if errors.Is(err, ErrVerifierUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrVerifierUnavailable, err.Error())
	}
	if !ok {
		s.logger.Info().Msg("access code rejected")
		return nil, ErrInvalidAccessCode
	}

	sess, err := s.sessions.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(sess.ID)
	if err != nil {
		_ = s.sessions.End(ctx, sess.ID)
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		SessionID:   sess.ID,
	}, nil
}

// ValidateAccessToken validates a token and returns its session ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}
