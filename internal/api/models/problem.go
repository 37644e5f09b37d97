package models

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the media type of every error body.
const ProblemContentType = "application/problem+json"

// Problem is an RFC 7807 error body.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"` // request path
	TraceID  string       `json:"traceId"`            // request ID, for log correlation
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://privacyguard.dev/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation           = problemBase + "validation-error"
	ProblemTypeUnauthorized         = problemBase + "unauthorized"
	ProblemTypeForbidden            = problemBase + "forbidden"
	ProblemTypeNotFound             = problemBase + "not-found"
	ProblemTypeUnsupportedMediaType = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests      = problemBase + "too-many-requests"
	ProblemTypeInternal             = problemBase + "internal-error"
	ProblemTypeUnavailable          = problemBase + "service-unavailable"
)

var problemKinds = map[int]struct{ typ, title string }{
	http.StatusBadRequest:           {ProblemTypeValidation, "Validation error"},
	http.StatusUnauthorized:         {ProblemTypeUnauthorized, "Unauthorized"},
	http.StatusForbidden:            {ProblemTypeForbidden, "Forbidden"},
	http.StatusNotFound:             {ProblemTypeNotFound, "Not found"},
	http.StatusUnsupportedMediaType: {ProblemTypeUnsupportedMediaType, "Unsupported media type"},
	http.StatusTooManyRequests:      {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError:  {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:   {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem builds a problem for an HTTP status. Statuses without a
// dedicated type use "about:blank" and the standard status text.
func NewProblem(status int, traceID, detail string) *Problem {
	kind, ok := problemKinds[status]
	if !ok {
		kind.typ, kind.title = "about:blank", http.StatusText(status)
	}
	return &Problem{
		Type:    kind.typ,
		Title:   kind.title,
		Status:  status,
		Detail:  detail,
		TraceID: traceID,
	}
}

// WithInstance sets the request path.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errs []FieldError) *Problem {
	p.Errors = errs
	return p
}

// Write sends the problem, echoing the trace ID as X-Request-Id.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", ProblemContentType)
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func NewBadRequest(traceID, detail string, errs []FieldError) *Problem {
	return NewProblem(http.StatusBadRequest, traceID, detail).WithErrors(errs)
}

func NewUnauthorized(traceID, detail string) *Problem {
	return NewProblem(http.StatusUnauthorized, traceID, detail)
}

func NewForbidden(traceID, detail string) *Problem {
	return NewProblem(http.StatusForbidden, traceID, detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(http.StatusNotFound, traceID, detail)
}

func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(http.StatusUnsupportedMediaType, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(http.StatusTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(http.StatusInternalServerError, traceID, detail)
}

func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(http.StatusServiceUnavailable, traceID, detail)
}
