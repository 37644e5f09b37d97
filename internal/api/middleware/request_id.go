// Package middleware provides HTTP middleware for the PrivacyGuard API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// requestInfoKey is the context key for per-request metadata.
type requestInfoKey struct{}

// requestInfo is shared by every middleware of a request. Inner middleware
// fill it in so outer middleware can read it after the handler returns.
type requestInfo struct {
	id        string
	sessionID string
}

const maxRequestIDLength = 64

// RequestID assigns a request ID, honouring a well-formed X-Request-Id from
// the caller, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:22]
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func getRequestInfo(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if info := getRequestInfo(ctx); info != nil {
		return info.id
	}
	return ""
}
