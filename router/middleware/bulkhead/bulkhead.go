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

// Package bulkhead provides middleware that caps concurrent in-flight
// requests with a counted semaphore and a bounded FIFO wait queue,
// isolating one route or upstream from exhausting shared resources
// (spec.md §4.7).
package bulkhead

import (
	"net/http"
	"strconv"
	"time"

	"github.com/solaris-dev/solaris/router"
)

// Option configures the bulkhead middleware.
type Option func(*config)

type config struct {
	maxConcurrent int
	maxQueue      int
	queueTimeout  time.Duration
	retryAfter    time.Duration
	onReject      func(c *router.Context)
}

// WithMaxConcurrent sets the number of requests allowed to run at once.
// Default: 10.
func WithMaxConcurrent(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxConcurrent = n
		}
	}
}

// WithMaxQueue sets the bound on waiters queued once max_concurrent is
// reached. Default: 20.
func WithMaxQueue(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.maxQueue = n
		}
	}
}

// WithQueueTimeout sets how long a queued waiter waits for a permit
// before being rejected. Default: 5s.
func WithQueueTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.queueTimeout = d
		}
	}
}

// WithRetryAfter sets the Retry-After value (seconds) sent on rejection.
// Default: 5s, per spec.md §4.7.
func WithRetryAfter(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.retryAfter = d
		}
	}
}

// WithRejectHandler overrides the default 503 response on rejection.
// The handler is responsible for writing the response.
func WithRejectHandler(fn func(c *router.Context)) Option {
	return func(cfg *config) { cfg.onReject = fn }
}

// New creates bulkhead middleware limiting concurrent requests that
// pass through it.
//
// Example:
//
//	r.Use(bulkhead.New(
//	    bulkhead.WithMaxConcurrent(50),
//	    bulkhead.WithMaxQueue(100),
//	    bulkhead.WithQueueTimeout(2*time.Second),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := &config{
		maxConcurrent: 10,
		maxQueue:      20,
		queueTimeout:  5 * time.Second,
		retryAfter:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sem := newSemaphore(cfg.maxConcurrent, cfg.maxQueue, cfg.queueTimeout)

	return func(c *router.Context) {
		release, ok := sem.tryAcquire(c.Request.Context())
		if !ok {
			if cfg.onReject != nil {
				cfg.onReject(c)
				c.Abort()
				return
			}
			c.Header("Retry-After", strconv.Itoa(int(cfg.retryAfter.Seconds())))
			c.WriteErrorResponse(http.StatusServiceUnavailable, "Service Unavailable")
			c.Abort()
			return
		}
		defer release()
		c.Next()
	}
}
