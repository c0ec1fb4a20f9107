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

package sse

import (
	"log/slog"
	"sync"

	"github.com/solaris-dev/solaris/router"
)

// Emit enqueues an event for delivery. It returns ErrClosed if the
// stream has already ended (client disconnect or handler completion);
// per spec.md §4.9's open question on the emit/cleanup race, the
// chosen semantics are a silent drop — callers are free to ignore the
// error, and Serve logs it once per stream.
type Emit func(Event) error

// Handler receives an emit callback and may return a cleanup function.
// The cleanup, if non-nil, runs exactly once when the stream ends,
// whether by normal completion, client disconnect, or handler error.
type Handler func(emit Emit) (cleanup func())

// EmitterOption configures Serve.
type EmitterOption func(*emitterConfig)

type emitterConfig struct {
	queueSize int
	logger    *slog.Logger
}

// WithQueueSize sets the buffered channel depth between emit and the
// socket writer. Default: 16.
func WithQueueSize(n int) EmitterOption {
	return func(cfg *emitterConfig) {
		if n > 0 {
			cfg.queueSize = n
		}
	}
}

// WithLogger sets the logger used to report a dropped post-cleanup
// emit. Default: no logging.
func WithLogger(logger *slog.Logger) EmitterOption {
	return func(cfg *emitterConfig) { cfg.logger = logger }
}

// Serve drives an SSE response from a push emitter. handler is called
// once with an emit callback; it typically starts a goroutine that
// calls emit over time and returns a cleanup function. Serve blocks,
// relaying emitted events to the client, until the client disconnects
// or the request context is otherwise cancelled, then runs cleanup
// exactly once.
func Serve(c *router.Context, handler Handler, opts ...EmitterOption) error {
	cfg := &emitterConfig{queueSize: 16}
	for _, opt := range opts {
		opt(cfg)
	}

	w, ok := newWriter(c)
	if !ok {
		return errStreamingUnsupported
	}

	events := make(chan Event, cfg.queueSize)
	done := make(chan struct{})
	var closeDoneOnce, cleanupOnce, warnOnce sync.Once

	closeDone := func() { closeDoneOnce.Do(func() { close(done) }) }

	emit := func(ev Event) error {
		select {
		case events <- ev:
			return nil
		case <-done:
			warnOnce.Do(func() {
				if cfg.logger != nil {
					cfg.logger.Warn("sse: emit called after stream closed, dropping event")
				}
			})
			return ErrClosed
		}
	}

	cleanup := handler(emit)
	runCleanup := func() {
		cleanupOnce.Do(func() {
			if cleanup != nil {
				cleanup()
			}
		})
	}
	defer runCleanup()
	defer w.markClosed()
	defer closeDone()

	ctx := c.Request.Context()
	for {
		select {
		case ev := <-events:
			if err := w.Send(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
