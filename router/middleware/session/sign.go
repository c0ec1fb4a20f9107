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
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// newSessionID generates a session id from a cryptographically random
// 16-byte source, base64url rendered (spec.md §4.8).
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// sign computes base64url(HMAC-SHA256(secret, id)).
func sign(secret []byte, id string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// cookieValue renders the signed cookie value: <id>.<signature>.
func cookieValue(secret []byte, id string) string {
	return id + "." + sign(secret, id)
}

// parseCookieValue splits a cookie value on its last '.' and verifies
// the signature with a constant-time comparison. On any failure the
// session is treated as absent, per spec.md §4.8.
func parseCookieValue(secret []byte, value string) (id string, ok bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx < 0 {
		return "", false
	}
	id, sig := value[:idx], value[idx+1:]
	if id == "" {
		return "", false
	}
	expected := sign(secret, id)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return id, true
}
