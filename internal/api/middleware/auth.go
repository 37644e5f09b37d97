package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/privacyguard/privacyguard/internal/api/models"
	"github.com/privacyguard/privacyguard/internal/auth"
)

// sessionIDKey is the context key for the authenticated session ID.
type sessionIDKey struct{}

// TokenValidator validates bearer tokens and returns the session they grant.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth creates authentication middleware that validates session bearer tokens.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r.Header.Get("Authorization"))
			if detail != "" {
				writeUnauthorized(w, r, detail)
				return
			}

			sessionID, err := validator.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			if info := getRequestInfo(r.Context()); info != nil {
				info.sessionID = sessionID
			}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("session.id", sessionID))

			ctx := context.WithValue(r.Context(), sessionIDKey{}, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. A non-empty
// detail describes why the header was rejected.
func bearerToken(header string) (token, detail string) {
	if header == "" {
		return "", "missing authorization header"
	}

	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "invalid authorization header format"
	}

	token = strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// writeUnauthorized writes a 401 problem. It lives here because the response
// package imports middleware.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="privacyguard"`)
	models.NewUnauthorized(GetRequestID(r.Context()), detail).WithInstance(r.URL.Path).Write(w)
}

// GetSessionID retrieves the authenticated session ID from the context.
// Returns an empty string if not authenticated.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
