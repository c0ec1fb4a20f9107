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

package ws

import (
	"net/http"

	"github.com/solaris-dev/solaris/router"
)

// Handle upgrades c's request to a WebSocket connection and runs fn
// with the resulting Session. fn should loop on sess.Next() until it
// returns ok=false, then return; the socket is closed once fn returns.
//
// Example:
//
//	r.GET("/ws/echo", func(c *router.Context) {
//	    _ = ws.Handle(c, func(sess *ws.Session) {
//	        for {
//	            msg, ok := sess.Next()
//	            if !ok {
//	                return
//	            }
//	            _ = sess.Send(msg.Type, msg.Data)
//	        }
//	    })
//	})
func Handle(c *router.Context, fn func(sess *Session)) error {
	conn, err := Accept(c.Response, c.Request)
	if err != nil {
		if err == ErrNotUpgrade {
			c.WriteErrorResponse(http.StatusUpgradeRequired, "Upgrade Required")
		}
		return err
	}
	defer conn.Close()

	fn(NewSession(conn))
	return nil
}
