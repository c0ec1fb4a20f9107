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

// Package session provides cookie-bound, pluggable-store session
// management: signed session ids, flash messages, and regenerate /
// destroy semantics (spec.md §4.8).
package session

import (
	"sync"
)

const flashPrefix = "_flash_"

// Session is the per-request session handle. Data mutation through
// Get/Set/Delete/Flash/ReadFlash is tracked so the middleware knows
// whether to write the store and reissue the cookie on response.
type Session struct {
	mu sync.Mutex

	id    string
	oldID string // set by Regenerate; purged from the store on save

	data map[string]any

	isNew          bool
	isModified     bool
	isDestroyed    bool
	wasRegenerated bool
	touched        bool
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsNew reports whether this session was created for this request
// (no matching cookie, or the cookie failed verification).
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew
}

// Get returns the value stored under key and marks the session touched.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = true
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key and marks the session modified.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.isModified = true
}

// Delete removes key and marks the session modified.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.isModified = true
	}
}

// Flash appends value to the flash array stored under key. Flash
// entries live under the reserved key "_flash_<key>" and are readable
// exactly once, on the next request (spec.md §4.8).
func (s *Session) Flash(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := flashPrefix + key
	arr, _ := s.data[k].([]any)
	s.data[k] = append(arr, value)
	s.isModified = true
}

// ReadFlash returns and deletes the flash array stored under key.
func (s *Session) ReadFlash(key string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := flashPrefix + key
	arr, _ := s.data[k].([]any)
	if len(arr) > 0 {
		delete(s.data, k)
		s.isModified = true
	}
	return arr
}

// Regenerate destroys the current session id and allocates a new one,
// preserving data. The old id is purged from the store when the
// middleware saves the session.
func (s *Session) Regenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wasRegenerated {
		s.oldID = s.id
	}
	s.id = newSessionID()
	s.wasRegenerated = true
	s.isModified = true
}

// Destroy marks the session for deletion: the store entry is removed
// and the cookie is expired on response.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isDestroyed = true
}
