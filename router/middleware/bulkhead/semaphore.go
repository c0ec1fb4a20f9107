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

package bulkhead

import (
	"context"
	"sync/atomic"
	"time"
)

// semaphore is a counted semaphore with a bounded FIFO wait queue, per
// spec.md §4.7's Bulkhead State: {running_count, queue, max_concurrent,
// max_queue}. Permits are represented by sends on a buffered channel;
// Go's runtime serves blocked channel senders in FIFO order, so callers
// queued ahead of later arrivals are admitted first.
type semaphore struct {
	maxQueue     int64
	queueTimeout time.Duration
	tokens       chan struct{}
	queued       atomic.Int64
}

func newSemaphore(maxConcurrent, maxQueue int, queueTimeout time.Duration) *semaphore {
	return &semaphore{
		maxQueue:     int64(maxQueue),
		queueTimeout: queueTimeout,
		tokens:       make(chan struct{}, maxConcurrent),
	}
}

// tryAcquire implements try_acquire(): an immediate permit if running <
// max_concurrent; otherwise a bounded-FIFO wait up to queue_timeout (or
// ctx cancellation) if the queue has room; otherwise rejection.
func (s *semaphore) tryAcquire(ctx context.Context) (release func(), ok bool) {
	select {
	case s.tokens <- struct{}{}:
		return s.releaseFunc(), true
	default:
	}

	if s.queued.Load() >= s.maxQueue {
		return nil, false
	}

	s.queued.Add(1)
	defer s.queued.Add(-1)

	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()

	select {
	case s.tokens <- struct{}{}:
		return s.releaseFunc(), true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (s *semaphore) releaseFunc() func() {
	return func() {
		select {
		case <-s.tokens:
		default:
		}
	}
}

// running returns the number of permits currently held, for diagnostics.
func (s *semaphore) running() int {
	return len(s.tokens)
}

// queueLen returns the number of waiters currently enqueued.
func (s *semaphore) queueLen() int {
	return int(s.queued.Load())
}
