package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Guard wraps a database connection with a circuit breaker so that when
// Postgres is down or slow, callers fail fast instead of piling up on a
// dead pool. It satisfies the repository Querier interface.
type Guard struct {
	cb *gobreaker.CircuitBreaker
	db *sql.DB
}

// GuardConfig holds the breaker settings for the database guard.
type GuardConfig struct {
	// Name identifies the breaker in logs.
	Name string
	// MaxRequests is allowed through in half-open state.
	MaxRequests uint32
	// Interval clears counts in the closed state.
	Interval time.Duration
	// Timeout is the open-state cooldown before a probe is allowed.
	Timeout time.Duration
	// MinRequests consecutive failures trip the breaker.
	MinRequests uint32
}

// DefaultGuardConfig trips after 5 consecutive failures and probes after 30s.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Name:        "database",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 5,
	}
}

// NewGuard wraps db with a circuit breaker using the given configuration.
func NewGuard(db *sql.DB, cfg GuardConfig) *Guard {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return counts.TotalFailures == counts.Requests
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("database circuit state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &Guard{cb: gobreaker.NewCircuitBreaker(settings), db: db}
}

// QueryContext executes a query through the breaker. Returns
// gobreaker.ErrOpenState without touching the database when open.
func (g *Guard) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext executes a statement through the breaker.
func (g *Guard) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext bypasses the breaker because sql.Row defers its error to
// Scan, which the breaker cannot observe here.
func (g *Guard) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return g.db.QueryRowContext(ctx, query, args...)
}

// State returns the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// IsOpen reports whether the breaker currently rejects calls.
func (g *Guard) IsOpen() bool {
	return g.cb.State() == gobreaker.StateOpen
}

// DB exposes the unguarded pool for migrations and shutdown.
func (g *Guard) DB() *sql.DB {
	return g.db
}
