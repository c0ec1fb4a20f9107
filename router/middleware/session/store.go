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

package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Store is the pluggable session backend (spec.md §4.8): get(id) ->
// data|none, set(id, data, max_age), destroy(id), touch(id, max_age).
// A Redis-shaped key/value store with TTL implements this directly.
type Store interface {
	Get(ctx context.Context, id string) (data map[string]any, ok bool, err error)
	Set(ctx context.Context, id string, data map[string]any, maxAge time.Duration) error
	Destroy(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, maxAge time.Duration) error
}

type storeEntry struct {
	data     map[string]any
	expireAt time.Time
}

// InMemoryStore is the default Store implementation. A periodic sweep
// evicts expired entries, matching spec.md §4.8's "default in-memory
// store runs a periodic sweep."
type InMemoryStore struct {
	mu          sync.RWMutex
	entries     map[string]*storeEntry
	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

// NewInMemoryStore creates an in-memory session store with a 5-minute
// sweep interval.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		entries:     make(map[string]*storeEntry),
		stopCleanup: make(chan struct{}),
	}
	s.cleanup = time.NewTicker(5 * time.Minute)
	go s.sweepLoop()
	return s
}

func (s *InMemoryStore) sweepLoop() {
	for {
		select {
		case <-s.cleanup.C:
			now := time.Now()
			s.mu.Lock()
			for id, entry := range s.entries {
				if entry.expireAt.Before(now) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		case <-s.stopCleanup:
			return
		}
	}
}

// Close stops the background sweep goroutine.
func (s *InMemoryStore) Close() {
	close(s.stopCleanup)
}

func (s *InMemoryStore) Get(_ context.Context, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || entry.expireAt.Before(time.Now()) {
		return nil, false, nil
	}
	return maps.Clone(entry.data), true, nil
}

func (s *InMemoryStore) Set(_ context.Context, id string, data map[string]any, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &storeEntry{
		data:     maps.Clone(data),
		expireAt: time.Now().Add(maxAge),
	}
	return nil
}

func (s *InMemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *InMemoryStore) Touch(_ context.Context, id string, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		entry.expireAt = time.Now().Add(maxAge)
	}
	return nil
}
