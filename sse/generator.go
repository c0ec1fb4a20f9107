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

import "github.com/solaris-dev/solaris/router"

// Generator is called repeatedly for the next event. It returns
// ok=false to end the stream (the writer is then closed, no further
// calls are made).
type Generator func(w *Writer) (Event, bool)

// Stream drives an SSE response from a pull generator: the handler's
// control flow (and thus the goroutine) blocks in Stream, calling next
// until it signals completion or the client disconnects.
//
// Example:
//
//	r.GET("/events", func(c *router.Context) {
//	    count := 0
//	    sse.Stream(c, func(w *sse.Writer) (sse.Event, bool) {
//	        if count >= 5 {
//	            return sse.Event{}, false
//	        }
//	        count++
//	        return sse.Event{Event: "tick", Data: count}, true
//	    })
//	})
func Stream(c *router.Context, next Generator) error {
	w, ok := newWriter(c)
	if !ok {
		return errStreamingUnsupported
	}
	defer w.markClosed()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, ok := next(w)
		if !ok {
			return nil
		}
		if err := w.Send(ev); err != nil {
			return err
		}
	}
}

var errStreamingUnsupported = streamingUnsupportedError{}

type streamingUnsupportedError struct{}

func (streamingUnsupportedError) Error() string {
	return "sse: response writer does not support flushing"
}
