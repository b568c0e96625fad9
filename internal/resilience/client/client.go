// Package client provides the retrying outbound HTTP client. It composes
// the circuit registry, failure classifier and backoff policy into a single
// blocking call: consult the circuit, throttle, issue the attempt under a
// hard timeout, classify the failure, sleep, loop.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"fixturecast/internal/observability/metrics"
	"fixturecast/internal/observability/tracing"
	"fixturecast/internal/resilience"
	"fixturecast/internal/resilience/backoff"
	"fixturecast/internal/resilience/circuit"
	"fixturecast/internal/resilience/classify"
)

// maxBodyBytes caps how much of a response body is read. The APIs this
// client talks to return small JSON payloads; anything bigger is a bug.
const maxBodyBytes = 8 << 20

// Transport issues a single HTTP request. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one logical outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the successful outcome of an Execute call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RetryPolicy is the per-call-site retry budget.
type RetryPolicy struct {
	// MaxRetries is how many times a failed attempt is retried. The total
	// attempt count is MaxRetries+1.
	MaxRetries int

	// BaseDelay seeds exponential backoff categories.
	BaseDelay time.Duration

	// MaxDelay caps exponential backoff categories.
	MaxDelay time.Duration

	// RetryableStatusCodes lists HTTP statuses retried regardless of
	// category.
	RetryableStatusCodes map[int]struct{}
}

// DefaultRetryPolicy returns the standard policy: three retries, one second
// base, and the usual transient statuses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
		RetryableStatusCodes: map[int]struct{}{
			http.StatusRequestTimeout:      {},
			http.StatusTooManyRequests:     {},
			http.StatusInternalServerError: {},
			http.StatusBadGateway:          {},
			http.StatusServiceUnavailable:  {},
			http.StatusGatewayTimeout:      {},
		},
	}
}

// Client is the retrying outbound client. One instance is shared by all
// workers; per-call state lives on the stack.
type Client struct {
	transport Transport
	circuits  *circuit.Registry
	limits    limitTracker
	logger    *slog.Logger

	// HonorRetryAfter switches rate-limit backoff to header-aware mode.
	HonorRetryAfter bool

	mu      sync.Mutex
	limiter map[resilience.Service]*rate.Limiter

	// test hooks
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a client. transport is typically *http.Client with its own
// connection pooling; the per-attempt timeout is applied here via context.
func New(transport Transport, circuits *circuit.Registry, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		circuits:  circuits,
		logger:    logger,
		limiter:   make(map[resilience.Service]*rate.Limiter),
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

// SetPacing installs a client-side rate limiter for a service. Pacing is in
// addition to the advisory header-driven throttle.
func (c *Client) SetPacing(service resilience.Service, limit rate.Limit, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiter[service] = rate.NewLimiter(limit, burst)
}

func (c *Client) pacer(service resilience.Service) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limiter[service]
}

// Execute performs one logical call with retries. It blocks the calling
// goroutine for at most (MaxRetries+1)*timeout plus backoff sleeps. On
// exhaustion it returns *ExhaustedRetriesError; if the circuit is open it
// returns *CircuitOpenError without touching the network.
func (c *Client) Execute(ctx context.Context, req Request, policy RetryPolicy, timeout time.Duration, service resilience.Service) (*Response, error) {
	ctx, span := tracing.StartOutboundSpan(ctx, string(service), "resilience.Execute")
	span.SetAttributes(attribute.String("http.method", req.Method))
	defer span.End()

	if c.circuits.IsOpen(service) {
		status := c.circuits.Status(service)
		metrics.RecordOutboundRequest(string(service), "circuit_open", 0)
		span.SetAttributes(attribute.Bool("circuit_open", true))
		return nil, &CircuitOpenError{Service: service, RetryAfter: status.RetryAfter}
	}

	delays := backoff.Policy{
		BaseDelay:       policy.BaseDelay,
		MaxDelay:        policy.MaxDelay,
		HonorRetryAfter: c.HonorRetryAfter,
	}

	var lastErr error
	var lastCat classify.Category
	var lastRetryAfter time.Duration

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := c.throttle(ctx, service); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, req, timeout, service, attempt)
		if err == nil {
			c.circuits.RecordSuccess(service)
			return resp, nil
		}

		// Caller cancellation is terminal: the attempt is not retried and
		// the failure is not the service's fault.
		if ctx.Err() != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("call cancelled: %w", ctx.Err())
		}

		lastErr = err
		lastCat = classify.Classify(err)
		lastRetryAfter = retryAfterOf(err, c.now())

		if !c.retryable(err, lastCat, policy) {
			c.circuits.RecordFailure(service, err)
			span.RecordError(err)
			return nil, &NonRetryableError{Service: service, Category: lastCat, Err: err}
		}

		if attempt == policy.MaxRetries {
			break
		}

		delay := delays.DelayWithRetryAfter(attempt+1, lastCat, lastRetryAfter)
		metrics.RecordRetryAttempt(string(service), string(lastCat))
		c.logger.Warn("outbound call failed, retrying",
			slog.String("service", string(service)),
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", policy.MaxRetries),
			slog.String("category", string(lastCat)),
			slog.Duration("delay", delay),
			slog.Any("error", err))
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", attempt+1),
			attribute.String("category", string(lastCat)),
		))

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry aborted: %w", err)
		}
	}

	c.circuits.RecordFailure(service, lastErr)
	span.RecordError(lastErr)
	return nil, &ExhaustedRetriesError{
		Service:  service,
		Attempts: policy.MaxRetries + 1,
		Category: lastCat,
		Err:      lastErr,
	}
}

// attempt issues one request under the hard per-attempt timeout.
func (c *Client) attempt(ctx context.Context, req Request, timeout time.Duration, service resilience.Service, n int) (*Response, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := c.now()
	httpResp, err := c.transport.Do(httpReq)
	duration := c.now().Sub(start)
	if err != nil {
		metrics.RecordOutboundRequest(string(service), "failure", duration)
		return nil, fmt.Errorf("attempt %d: %w", n+1, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordOutboundRequest(string(service), "failure", duration)
		return nil, fmt.Errorf("attempt %d: read body: %w", n+1, err)
	}

	c.limits.updateFromHeaders(service, httpResp.Header, c.now())

	if httpResp.StatusCode >= 400 {
		metrics.RecordOutboundRequest(string(service), "failure", duration)
		return nil, &statusError{
			HTTPError: classify.HTTPError{
				StatusCode: httpResp.StatusCode,
				Message:    truncate(string(respBody), 200),
			},
			header: httpResp.Header,
		}
	}

	metrics.RecordOutboundRequest(string(service), "success", duration)
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// throttle applies the advisory rate-limit spread and any configured pacer.
func (c *Client) throttle(ctx context.Context, service resilience.Service) error {
	if snap, ok := c.limits.get(service); ok {
		if delay := throttleDelay(snap, c.now()); delay > 0 {
			metrics.RecordThrottleSleep(string(service))
			c.logger.Debug("throttling ahead of rate limit",
				slog.String("service", string(service)),
				slog.Int("remaining", snap.Remaining),
				slog.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return fmt.Errorf("throttle aborted: %w", err)
			}
		}
	}
	if p := c.pacer(service); p != nil {
		if err := p.Wait(ctx); err != nil {
			return fmt.Errorf("pacing aborted: %w", err)
		}
	}
	return nil
}

func (c *Client) retryable(err error, cat classify.Category, policy RetryPolicy) bool {
	if se, ok := asStatusError(err); ok {
		if _, ok := policy.RetryableStatusCodes[se.StatusCode]; ok {
			return true
		}
	}
	return cat == classify.Timeout || cat == classify.NetworkError
}

// statusError is an HTTPError that kept its response headers, so the
// backoff policy can read Retry-After in header-aware mode.
type statusError struct {
	classify.HTTPError
	header http.Header
}

func (e *statusError) Unwrap() error { return &e.HTTPError }

func asStatusError(err error) (*classify.HTTPError, bool) {
	var httpErr *classify.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func retryAfterOf(err error, now time.Time) time.Duration {
	var se *statusError
	if errors.As(err, &se) {
		return retryAfterFromHeaders(se.header, now)
	}
	return 0
}

// truncate cuts s to at most n bytes on a rune boundary, so a clipped
// multi-byte rune never leaves an invalid UTF-8 tail.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
