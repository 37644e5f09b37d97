package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/privacyguard/privacyguard/internal/api/models"
)

// Recovery converts a handler panic into a 500 problem, logs the stack and
// marks the request span as failed. http.ErrAbortHandler passes through.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				switch {
				case rv == nil:
					return
				case rv == http.ErrAbortHandler: //nolint:errorlint // sentinel compared by identity
					panic(rv)
				}

				ctx := r.Context()
				reason := fmt.Sprint(rv)

				span := trace.SpanFromContext(ctx)
				span.AddEvent("panic", trace.WithStackTrace(true))
				span.SetStatus(codes.Error, reason)

				reqID := GetRequestID(ctx)
				log.Error().
					Str("request_id", reqID).
					Str("session_id", GetSessionID(ctx)).
					Str("panic", reason).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				models.NewInternalError(reqID, "an unexpected error occurred").
					WithInstance(r.URL.Path).
					Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
