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

// Package sse implements a Server-Sent Events writer supporting both a
// pull generator (a function repeatedly called for the next event) and
// a push emitter (a handler given an emit callback and optionally
// returning a cleanup function), per spec.md §4.9.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	ginsse "github.com/gin-contrib/sse"
	"github.com/google/uuid"

	"github.com/solaris-dev/solaris/router"
)

// Event is the wire event: id/event/retry/data per spec.md §4.9. Data
// may be a string (written verbatim, split across "data:" lines on
// each "\n") or any other value, which gin-contrib/sse JSON-encodes
// onto a single data line.
type Event = ginsse.Event

// ErrClosed is returned by Writer methods once the stream has ended,
// either because the client disconnected or Close was called.
var ErrClosed = errors.New("sse: writer closed")

// Writer owns the write half of an SSE connection once the stream has
// started. It is not safe for concurrent use by more than one
// goroutine at a time; callers that emit from multiple goroutines must
// serialize their own calls.
type Writer struct {
	rw      http.ResponseWriter
	flusher http.Flusher

	// streamID correlates log lines across the handshake, the emitted
	// events, and the eventual cleanup for one stream.
	streamID string

	lastEventID string

	mu     sync.Mutex
	closed bool
}

// StreamID returns a per-stream correlation id, generated when the
// stream starts.
func (w *Writer) StreamID() string { return w.streamID }

// newWriter flushes SSE response headers and returns a Writer bound to
// c's response. It reports false if the response writer cannot flush,
// in which case no headers have been written.
func newWriter(c *router.Context) (*Writer, bool) {
	flusher, ok := c.Response.(http.Flusher)
	if !ok {
		return nil, false
	}

	h := c.Response.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{
		rw:          c.Response,
		flusher:     flusher,
		streamID:    uuid.NewString(),
		lastEventID: c.Request.Header.Get("Last-Event-ID"),
	}, true
}

// LastEventID returns the client-supplied Last-Event-ID header, letting
// the handler skip or replay events the client has already seen.
func (w *Writer) LastEventID() string {
	return w.lastEventID
}

// Send writes one event and flushes it to the client.
func (w *Writer) Send(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := ginsse.Encode(w.rw, ev); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Comment writes a raw SSE comment line (": <text>\n\n"), used for
// keepalive pings and debugging annotations.
func (w *Writer) Comment(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(w.rw, ": %s\n\n", text); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Ping writes the canonical keepalive comment, ": ping".
func (w *Writer) Ping() error {
	return w.Comment("ping")
}

func (w *Writer) markClosed() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
