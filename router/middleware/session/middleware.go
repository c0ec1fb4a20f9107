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
	"net/http"

	"github.com/solaris-dev/solaris/router"
)

// contextKey is private to this package: session state is never meant
// to be read through router/middleware's shared ContextKey.
type contextKey string

const sessionContextKey contextKey = "solaris.session"

// New returns middleware that loads the session named by the signed
// cookie (or starts a new one), attaches it to the request context,
// and saves it back after the handler chain runs (spec.md §4.8).
//
// secret is the HMAC key used to sign and verify the cookie's session
// id; it must be kept stable across restarts for existing sessions to
// remain valid.
//
// Example:
//
//	r.Use(session.New([]byte(os.Getenv("SESSION_SECRET")),
//	    session.WithMaxAge(30*time.Minute),
//	    session.WithRolling(true),
//	))
//
//	r.POST("/login", func(c *router.Context) {
//	    sess := session.Get(c)
//	    sess.Set("user_id", 42)
//	})
func New(secret []byte, opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewInMemoryStore()
	}

	return func(c *router.Context) {
		sess := load(c, secret, cfg)

		ctx := context.WithValue(c.Request.Context(), sessionContextKey, sess)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		save(c, secret, cfg, sess)
	}
}

// Get retrieves the Session attached to the request by New. It always
// returns a non-nil Session once New is installed.
func Get(c *router.Context) *Session {
	sess, _ := c.Request.Context().Value(sessionContextKey).(*Session)
	return sess
}

func load(c *router.Context, secret []byte, cfg *config) *Session {
	cookie, err := c.Request.Cookie(cfg.cookieName)
	if err == nil {
		if id, ok := parseCookieValue(secret, cookie.Value); ok {
			if data, found, storeErr := cfg.store.Get(c.Request.Context(), id); storeErr == nil && found {
				return &Session{id: id, data: data}
			}
		}
	}
	return &Session{id: newSessionID(), data: make(map[string]any), isNew: true}
}

func save(c *router.Context, secret []byte, cfg *config, sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx := c.Request.Context()

	switch {
	case sess.isDestroyed:
		_ = cfg.store.Destroy(ctx, sess.id)
		if sess.wasRegenerated && sess.oldID != "" {
			_ = cfg.store.Destroy(ctx, sess.oldID)
		}
		clearCookie(c, cfg)

	case sess.isModified || sess.wasRegenerated:
		if sess.wasRegenerated && sess.oldID != "" {
			_ = cfg.store.Destroy(ctx, sess.oldID)
		}
		if err := cfg.store.Set(ctx, sess.id, sess.data, cfg.maxAge); err == nil {
			writeCookie(c, cfg, secret, sess.id)
		}

	case sess.touched || cfg.rolling:
		_ = cfg.store.Touch(ctx, sess.id, cfg.maxAge)
		if cfg.rolling {
			writeCookie(c, cfg, secret, sess.id)
		}

	case cfg.saveUninitialized && sess.isNew:
		if err := cfg.store.Set(ctx, sess.id, sess.data, cfg.maxAge); err == nil {
			writeCookie(c, cfg, secret, sess.id)
		}
	}
}

func writeCookie(c *router.Context, cfg *config, secret []byte, id string) {
	cookie := &http.Cookie{
		Name:     cfg.cookieName,
		Value:    cookieValue(secret, id),
		Path:     cfg.path,
		Domain:   cfg.domain,
		MaxAge:   int(cfg.maxAge.Seconds()),
		Secure:   cfg.secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.sameSite),
	}
	http.SetCookie(c.Response, cookie)
}

func clearCookie(c *router.Context, cfg *config) {
	cookie := &http.Cookie{
		Name:     cfg.cookieName,
		Value:    "",
		Path:     cfg.path,
		Domain:   cfg.domain,
		MaxAge:   -1,
		Secure:   cfg.secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.sameSite),
	}
	http.SetCookie(c.Response, cookie)
}

func parseSameSite(value string) http.SameSite {
	switch value {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
