package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when all retry attempts have been exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming, the health
	// registry and provider metrics.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries uint64

	// NoRetry disables retries entirely; each request is attempted once.
	// MaxRetries is ignored when set.
	NoRetry bool

	// NoBreaker disables the circuit breaker so that calls never share
	// state: every request is sent. CircuitBreaker is ignored when set.
	NoBreaker bool

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry, if set, has the client registered under Name and receives
	// success/failure reports for every call.
	Registry *Registry

	// Metrics, if set, records call duration and outcome.
	Metrics *Metrics
}

// DefaultClientConfig returns sensible defaults for the resilient client.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.NoRetry {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
	}

	if !cfg.NoBreaker {
		cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
		if cfg.CircuitBreaker != nil {
			cbConfig = *cfg.CircuitBreaker
		}
		if cfg.Registry != nil {
			registry, next := cfg.Registry, cbConfig.OnStateChange
			cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
				registry.RecordStateChange(cfg.Name)
				if next != nil {
					next(name, from, to)
				}
			}
		}
		c.circuitBreaker = NewCircuitBreaker[*http.Response](cbConfig) //nolint:bodyclose // type param, not response
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}

	return c
}

// Name returns the configured client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes an HTTP request with circuit breaker protection and retry logic.
// The request is retried on transient failures (5xx, network errors) with exponential backoff.
// Returns immediately with ErrCircuitOpen if the circuit breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)

	callErr := err
	if callErr == nil && resp != nil && resp.StatusCode >= 500 {
		callErr = &ServerError{StatusCode: resp.StatusCode}
	}
	if c.config.Registry != nil {
		if callErr != nil {
			c.config.Registry.RecordFailure(c.config.Name, callErr)
		} else {
			c.config.Registry.RecordSuccess(c.config.Name)
		}
	}
	if c.config.Metrics != nil {
		c.config.Metrics.RecordRequest(ctx, c.config.Name, req.URL.Path, time.Since(start), callErr)
	}

	return resp, err
}

// RoundTrip implements http.RoundTripper so that libraries which only
// accept an *http.Client can still go through the breaker and registry.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// StandardClient returns an *http.Client whose transport is c.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{Transport: c}
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	send := func() (*http.Response, error) {
		r, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, &ServerError{StatusCode: r.StatusCode}
		}
		return r, nil
	}

	operation := func() error {
		// 5xx responses are returned as errors so they count against the breaker.
		var resp *http.Response
		var err error
		if c.circuitBreaker != nil {
			resp, err = c.circuitBreaker.Execute(send) //nolint:bodyclose // caller is responsible for closing
		} else {
			resp, err = send() //nolint:bodyclose // caller is responsible for closing
		}

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}

			if resp != nil {
				if lastResp != nil && lastResp != resp {
					lastResp.Body.Close()
				}
				lastResp = resp
			}
			return err
		}

		if lastResp != nil && lastResp != resp {
			lastResp.Body.Close()
		}
		lastResp = resp
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		// A 5xx that exhausted retries is still handed back to the caller.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the current state of the circuit breaker.
// A client without a breaker is always closed.
func (c *Client) CircuitBreakerState() gobreaker.State {
	if c.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	if c.circuitBreaker == nil {
		return gobreaker.Counts{}
	}
	return c.circuitBreaker.Counts()
}
