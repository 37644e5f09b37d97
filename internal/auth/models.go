// Package auth provides the access-code gate and session tokens.
package auth

import "strings"

// AccessRequest is the body of an access-code login.
type AccessRequest struct {
	AccessCode string `json:"accessCode"`
}

// Normalize trims surrounding whitespace from the code.
func (r *AccessRequest) Normalize() {
	r.AccessCode = strings.TrimSpace(r.AccessCode)
}

// Validate validates the access request.
func (r *AccessRequest) Validate() []FieldError {
	var errs []FieldError

	switch {
	case r.AccessCode == "":
		errs = append(errs, FieldError{
			Field:   "accessCode",
			Message: "access code is required",
			Code:    "REQUIRED",
		})
	case len(r.AccessCode) > maxAccessCodeLength:
		errs = append(errs, FieldError{
			Field:   "accessCode",
			Message: "access code is too long",
			Code:    "TOO_LONG",
		})
	}

	return errs
}

// bcrypt ignores input past 72 bytes.
const maxAccessCodeLength = 72

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	// AccessToken is the session JWT.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// SessionID identifies the simulator session.
	SessionID string `json:"sessionId"`
}
