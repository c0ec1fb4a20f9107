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

import "time"

// Option configures the session middleware.
type Option func(*config)

type config struct {
	store              Store
	maxAge             time.Duration
	cookieName         string
	path               string
	domain             string
	secure             bool
	sameSite           string
	saveUninitialized  bool
	rolling            bool
}

func defaultConfig() *config {
	return &config{
		maxAge:            30 * time.Minute,
		cookieName:        "sid",
		path:              "/",
		secure:            true,
		sameSite:          "Lax",
		saveUninitialized: false,
		rolling:           false,
	}
}

// WithStore sets the session backend. Default: an InMemoryStore.
func WithStore(s Store) Option {
	return func(cfg *config) { cfg.store = s }
}

// WithMaxAge sets the session and cookie lifetime. Default: 30m.
func WithMaxAge(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.maxAge = d
		}
	}
}

// WithCookieName sets the session cookie name. Default: "sid".
func WithCookieName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.cookieName = name
		}
	}
}

// WithPath sets the cookie Path attribute. Default: "/".
func WithPath(path string) Option {
	return func(cfg *config) { cfg.path = path }
}

// WithDomain sets the cookie Domain attribute.
func WithDomain(domain string) Option {
	return func(cfg *config) { cfg.domain = domain }
}

// WithSecure sets the cookie Secure attribute. Default: true.
func WithSecure(secure bool) Option {
	return func(cfg *config) { cfg.secure = secure }
}

// WithSameSite sets the cookie SameSite attribute ("Strict", "Lax",
// "None"). Default: "Lax".
func WithSameSite(sameSite string) Option {
	return func(cfg *config) { cfg.sameSite = sameSite }
}

// WithSaveUninitialized controls whether a brand-new, never-touched
// session is still persisted and cookied. Default: false.
func WithSaveUninitialized(save bool) Option {
	return func(cfg *config) { cfg.saveUninitialized = save }
}

// WithRolling extends the session's expiry on every request that
// touches it, reissuing the cookie with a fresh Max-Age. Default: false.
func WithRolling(rolling bool) Option {
	return func(cfg *config) { cfg.rolling = rolling }
}
