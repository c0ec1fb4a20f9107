// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package circuitbreaker provides middleware that wraps the downstream
// handler chain in a closed/open/half-open state machine, tripping
// after a run of consecutive failures and probing for recovery after
// a cooldown.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/solaris-dev/solaris/router"
)

// State mirrors the breaker's three states for callers that want to
// observe transitions without importing gobreaker directly.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Classifier reports whether a completed request should count as a
// breaker failure. Default: HTTP status >= 500.
type Classifier func(status int) bool

// Option configures the circuit breaker middleware.
type Option func(*config)

type config struct {
	name             string
	failureThreshold uint32
	resetTimeout     time.Duration
	successThreshold uint32
	requestTimeout   time.Duration
	classifier       Classifier
	fallback         func(c *router.Context)
	onStateChange    func(name string, from, to State)
	logger           *slog.Logger
}

// WithName sets the breaker's name, used in OnStateChange callbacks and logs.
func WithName(name string) Option {
	return func(cfg *config) { cfg.name = name }
}

// WithFailureThreshold sets the number of consecutive failures in the
// closed state that trips the breaker open. Default: 5.
func WithFailureThreshold(n uint32) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.failureThreshold = n
		}
	}
}

// WithResetTimeout sets how long the breaker stays open before
// admitting a half-open probe. Default: 30s.
func WithResetTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.resetTimeout = d
		}
	}
}

// WithSuccessThreshold sets the number of consecutive half-open
// successes required to close the breaker. Default: 2.
func WithSuccessThreshold(n uint32) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.successThreshold = n
		}
	}
}

// WithRequestTimeout bounds each wrapped call with a deadline; a
// timeout counts as a failure. Default: 10s. Zero disables the deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *config) { cfg.requestTimeout = d }
}

// WithClassifier overrides the default >=500 failure classifier.
func WithClassifier(fn Classifier) Option {
	return func(cfg *config) { cfg.classifier = fn }
}

// WithFallback sets a handler invoked instead of the 503 default when
// admission is denied. The fallback is responsible for writing a response.
func WithFallback(fn func(c *router.Context)) Option {
	return func(cfg *config) { cfg.fallback = fn }
}

// WithOnStateChange registers a callback invoked on every state transition.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(cfg *config) { cfg.onStateChange = fn }
}

// WithLogger sets the slog.Logger used to report state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// errClassifiedFailure wraps a classified handler outcome so
// gobreaker's Execute counts it as a failure without discarding the
// fact that a response was already written.
type errClassifiedFailure struct {
	status int
}

func (e *errClassifiedFailure) Error() string {
	return fmt.Sprintf("circuit breaker: classified failure (status %d)", e.status)
}

// New creates circuit breaker middleware over a single upstream
// (spec.md §4.6: the breaker's state machine tracks one protected
// resource per middleware instance).
//
// Example:
//
//	r.Use(circuitbreaker.New(
//	    circuitbreaker.WithFailureThreshold(5),
//	    circuitbreaker.WithResetTimeout(30*time.Second),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := &config{
		name:             "circuitbreaker",
		failureThreshold: 5,
		resetTimeout:     30 * time.Second,
		successThreshold: 2,
		requestTimeout:   10 * time.Second,
		classifier: func(status int) bool {
			return status >= http.StatusInternalServerError
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	settings := gobreaker.Settings{
		Name:        cfg.name,
		MaxRequests: cfg.successThreshold,
		Timeout:     cfg.resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failureThreshold
		},
	}
	if cfg.onStateChange != nil || cfg.logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			if cfg.logger != nil {
				cfg.logger.Info("circuit breaker state change", "name", name, "from", from, "to", to)
			}
			if cfg.onStateChange != nil {
				cfg.onStateChange(name, from, to)
			}
		}
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](settings)

	return func(c *router.Context) {
		ctx := c.Request.Context()
		if cfg.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.requestTimeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}

		var ss statusTracker
		if existing, ok := c.Response.(statusTracker); ok {
			ss = existing
		} else {
			wrapped := &responseWriter{ResponseWriter: c.Response}
			c.Response = wrapped
			ss = wrapped
		}

		_, err := cb.Execute(func() (struct{}, error) {
			c.Next()

			if ctxErr := ctx.Err(); ctxErr != nil {
				return struct{}{}, ctxErr
			}
			if cfg.classifier(ss.StatusCode()) {
				return struct{}{}, &errClassifiedFailure{status: ss.StatusCode()}
			}
			return struct{}{}, nil
		})

		if err == nil {
			return
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if !c.IsAborted() {
				c.Abort()
			}
			if cfg.fallback != nil {
				cfg.fallback(c)
				return
			}
			c.Header("Retry-After", strconv.Itoa(int(cfg.resetTimeout.Seconds())))
			c.WriteErrorResponse(http.StatusServiceUnavailable, "Service Unavailable")
			return
		}

		// The wrapped handler already wrote (or failed to write) its own
		// response for classified failures and context-deadline errors;
		// nothing further to do here beyond letting gobreaker record them.
	}
}
