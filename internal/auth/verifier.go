package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// ErrVerifierUnavailable is returned when the access code cannot be checked.
var ErrVerifierUnavailable = errors.New("access code verifier unavailable")

// Verifier checks access codes.
type Verifier interface {
	// Verify reports whether the code is valid. An error means the check
	// itself failed and says nothing about the code.
	Verify(ctx context.Context, code string) (bool, error)
}

// BcryptVerifier checks codes against a bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates a verifier from an existing bcrypt hash.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid access code hash: %w", err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// NewBcryptVerifierFromCode hashes a plain code and returns a verifier for it.
func NewBcryptVerifierFromCode(code string) (*BcryptVerifier, error) {
	hash, err := HashAccessCode(code)
	if err != nil {
		return nil, err
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// HashAccessCode returns the bcrypt hash of a code.
func HashAccessCode(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing access code: %w", err)
	}
	return string(hashed), nil
}

// Verify compares the code with the stored hash.
func (v *BcryptVerifier) Verify(_ context.Context, code string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(code))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrVerifierUnavailable, err.Error())
	}
}

// HTTPDoer is an interface for making HTTP requests.
// Both *http.Client and *resilience.Client satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteVerifier delegates the check to an HTTP endpoint that accepts
// {"code": "..."} and answers {"valid": true|false}.
type RemoteVerifier struct {
	client HTTPDoer
	url    string
}

// NewRemoteVerifier creates a verifier that posts codes to url.
func NewRemoteVerifier(client HTTPDoer, url string) *RemoteVerifier {
	return &RemoteVerifier{client: client, url: url}
}

type remoteVerifyRequest struct {
	Code string `json:"code"`
}

type remoteVerifyResponse struct {
	Valid bool `json:"valid"`
}

// Verify posts the code to the remote endpoint.
func (v *RemoteVerifier) Verify(ctx context.Context, code string) (bool, error) {
	body, err := json.Marshal(remoteVerifyRequest{Code: code})
	if err != nil {
		return false, fmt.Errorf("encoding verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("creating verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrVerifierUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: unexpected status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var out remoteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decoding response: %s", ErrVerifierUnavailable, err.Error())
	}
	return out.Valid, nil
}
