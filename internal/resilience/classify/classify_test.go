package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify_StatusTokens(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"rate limit", errors.New("request failed with status 429"), RateLimit},
		{"internal error", errors.New("upstream returned 500"), ServerError},
		{"bad gateway", errors.New("upstream returned 502"), ServerError},
		{"unavailable", errors.New("upstream returned 503"), ServerError},
		{"gateway timeout status", errors.New("upstream returned 504"), ServerError},
		{"bad request", errors.New("got 400 from API"), ClientError},
		{"unauthorized", errors.New("got 401 from API"), ClientError},
		{"forbidden", errors.New("got 403 from API"), ClientError},
		{"not found", errors.New("got 404 from API"), ClientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_MessagePatterns(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"timeout word", errors.New("request timeout after 30s"), Timeout},
		{"etimedout", errors.New("dial tcp: ETIMEDOUT"), Timeout},
		{"abort", errors.New("AbortError: operation aborted"), Timeout},
		{"refused", errors.New("connect ECONNREFUSED 10.0.0.1"), NetworkError},
		{"dns", errors.New("getaddrinfo ENOTFOUND api.example.com"), NetworkError},
		{"reset", errors.New("read: ECONNRESET"), NetworkError},
		{"generic network", errors.New("network unreachable"), NetworkError},
		{"parse", errors.New("failed to parse response body"), ParseError},
		{"json", errors.New("invalid JSON in model output"), ParseError},
		{"unexpected", errors.New("unexpected end of input"), ParseError},
		{"empty", errors.New("empty_response from model"), ParseError},
		{"unknown", errors.New("something odd happened"), Unknown},
		{"nil", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// A 429 whose message also says "timeout" must classify as RateLimit:
// status tokens run before message patterns.
func TestClassify_StatusBeatsMessage(t *testing.T) {
	err := errors.New("status 429: rate limited, request timeout budget exceeded")
	if got := Classify(err); got != RateLimit {
		t.Errorf("Classify = %v, want %v", got, RateLimit)
	}
}

func TestClassify_HTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   Category
	}{
		{429, RateLimit},
		{408, Timeout},
		{500, ServerError},
		{503, ServerError},
		{599, ServerError},
		{400, ClientError},
		{404, ClientError},
		{422, ClientError},
		{302, Unknown},
	}

	for _, tt := range tests {
		err := fmt.Errorf("call failed: %w", &HTTPError{StatusCode: tt.status, Message: "x"})
		if got := Classify(err); got != tt.want {
			t.Errorf("Classify(status=%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClassify_ContextDeadline(t *testing.T) {
	err := fmt.Errorf("attempt: %w", context.DeadlineExceeded)
	if got := Classify(err); got != Timeout {
		t.Errorf("Classify = %v, want %v", got, Timeout)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	err := errors.New("upstream returned 503: network glitch")
	first := Classify(err)
	for i := 0; i < 100; i++ {
		if got := Classify(err); got != first {
			t.Fatalf("Classify not deterministic: %v then %v", first, got)
		}
	}
}

func TestIsModelSpecific(t *testing.T) {
	modelSpecific := []Category{ParseError, ClientError}
	transient := []Category{RateLimit, Timeout, ServerError, NetworkError, Unknown}

	for _, cat := range modelSpecific {
		if !IsModelSpecific(cat) {
			t.Errorf("IsModelSpecific(%v) = false, want true", cat)
		}
	}
	for _, cat := range transient {
		if IsModelSpecific(cat) {
			t.Errorf("IsModelSpecific(%v) = true, want false", cat)
		}
	}
}
