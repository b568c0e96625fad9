// Package classify maps raw outbound-call failures onto a fixed set of
// categories. The category drives both the retry backoff and the longer-term
// health signal fed into the circuit breaker, so classification must be
// deterministic for a given error.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Category is the closed set of failure categories.
type Category string

const (
	RateLimit    Category = "rate_limit"
	Timeout      Category = "timeout"
	ServerError  Category = "server_error"
	NetworkError Category = "network_error"
	ParseError   Category = "parse_error"
	ClientError  Category = "client_error"
	Unknown      Category = "unknown"
)

// HTTPError carries the status code of a failed outbound HTTP call.
// Callers that have the real status should use this rather than relying
// on substring matching of the rendered message.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// statusTokens are checked before message patterns: a rate-limit error's
// message often also contains words like "timeout" or "network" that would
// otherwise win.
var statusTokens = []struct {
	token    string
	category Category
}{
	{"429", RateLimit},
	{"500", ServerError},
	{"502", ServerError},
	{"503", ServerError},
	{"504", ServerError},
	{"400", ClientError},
	{"401", ClientError},
	{"403", ClientError},
	{"404", ClientError},
}

var messagePatterns = []struct {
	pattern  string
	category Category
}{
	{"timeout", Timeout},
	{"etimedout", Timeout},
	{"aborterror", Timeout},
	{"econnrefused", NetworkError},
	{"enotfound", NetworkError},
	{"econnreset", NetworkError},
	{"network", NetworkError},
	{"parse", ParseError},
	{"json", ParseError},
	{"unexpected", ParseError},
	{"empty_response", ParseError},
}

// Classify maps an error onto its Category.
//
// Precedence: a typed HTTP status first, then status-code tokens embedded in
// the message, then message patterns, then Unknown.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fromStatus(httpErr.StatusCode)
	}

	msg := err.Error()
	for _, st := range statusTokens {
		if strings.Contains(msg, st.token) {
			return st.category
		}
	}

	lower := strings.ToLower(msg)
	for _, mp := range messagePatterns {
		if strings.Contains(lower, mp.pattern) {
			return mp.category
		}
	}

	return Unknown
}

func fromStatus(status int) Category {
	switch {
	case status == 429:
		return RateLimit
	case status == 408:
		return Timeout
	case status >= 500 && status < 600:
		return ServerError
	case status >= 400 && status < 500:
		return ClientError
	default:
		return Unknown
	}
}

// IsModelSpecific reports whether repeated failures of this category should
// count toward disabling a specific downstream model. Transient categories
// reflect infrastructure conditions, not the model's own defectiveness, and
// must never count.
func IsModelSpecific(cat Category) bool {
	return cat == ParseError || cat == ClientError
}

// IsRetryable reports whether a category is worth retrying at all absent
// any per-call policy. ClientError is excluded: 4xx other than 408/429 is
// almost never fixed by trying again.
func IsRetryable(cat Category) bool {
	switch cat {
	case RateLimit, Timeout, ServerError, NetworkError, ParseError:
		return true
	default:
		return false
	}
}
