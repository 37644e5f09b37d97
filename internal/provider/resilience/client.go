package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ServerError reports an upstream 5xx response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the upstream in the breaker and the registry.
	Name string

	// Timeout per attempt. Default: 5s
	Timeout time.Duration

	// MaxRetries after the first attempt. Default: 2
	MaxRetries uint64

	// InitialInterval and MaxInterval bound the exponential backoff.
	// Defaults: 100ms and 2s
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Breaker settings; Name is filled from the client name when empty.
	Breaker BreakerConfig

	// Registry receives the outcome of every call when set.
	Registry *Registry

	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper
}

// Client is an HTTP client guarded by a circuit breaker and retries.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	registry   *Registry
	cfg        ClientConfig
}

// NewClient creates a resilient client and registers it when a registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = cfg.Name
	}

	c := &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		breaker:    newBreaker[*http.Response](cfg.Breaker), //nolint:bodyclose // type parameter
		registry:   cfg.Registry,
		cfg:        cfg,
	}
	if c.registry != nil {
		c.registry.Register(c)
	}
	return c
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// State returns the current breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker's current counters.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// Do sends the request through the breaker, retrying network errors and 5xx
// responses with exponential backoff. Requests with a body must be
// replayable: http.NewRequest sets GetBody for the common body types.
// When retries are exhausted on a 5xx the last response is returned with a
// nil error, so callers inspect the status code as usual.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var last *http.Response
	attempt := func() error {
		attemptReq, err := replay(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.httpClient.Do(attemptReq)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case err != nil:
			if last != nil {
				_ = last.Body.Close()
			}
			last = resp
			return err
		}

		if last != nil {
			_ = last.Body.Close()
		}
		last = resp
		return nil
	}

	err := backoff.Retry(attempt, policy)
	c.report(err)

	if err != nil {
		var serverErr *ServerError
		if last != nil && errors.As(err, &serverErr) {
			return last, nil
		}
		if last != nil {
			_ = last.Body.Close()
		}
		return nil, err
	}
	return last, nil
}

func (c *Client) report(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(c.name, err)
		return
	}
	c.registry.RecordSuccess(c.name)
}

// replay returns a copy of req with a fresh body for another attempt.
func replay(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}
