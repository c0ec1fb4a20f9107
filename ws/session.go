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
	"encoding/binary"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// MessageType distinguishes text and binary application messages.
type MessageType int

const (
	TextMessage MessageType = iota
	BinaryMessage
)

// Message is one reassembled application message: a data frame plus
// any continuation frames, up to and including the terminating fin
// frame (spec.md §4.10).
type Message struct {
	Type MessageType
	Data []byte
}

// CloseInfo is the outcome of a completed close handshake.
type CloseInfo struct {
	Code   uint16
	Reason string
}

// ErrInvalidCloseCode is returned by Close and surfaced via CloseInfo
// when a peer's close frame carries a code outside the valid ranges.
var ErrInvalidCloseCode = errors.New("ws: invalid close code")

// Session wraps a handshake-complete Conn with the message-iterator
// semantics of spec.md §4.10: Next yields reassembled messages, pings
// are answered with pongs automatically, and a received close is
// echoed before the socket half-closes.
type Session struct {
	conn *Conn
	id   string

	closeOnce sync.Once
	closeCh   chan CloseInfo
	closeInfo CloseInfo
}

// ID returns a per-connection correlation id, suitable for log lines
// and diagnostics tying together the handshake, message trace, and
// eventual close.
func (s *Session) ID() string { return s.id }

// NewSession wraps conn in a Session.
func NewSession(conn *Conn) *Session {
	return &Session{
		conn:    conn,
		id:      uuid.NewString(),
		closeCh: make(chan CloseInfo, 1),
	}
}

// Next blocks until the next application message arrives, an error
// occurs, or the session closes (in which case it returns
// io.EOF-shaped behavior via ok=false and the completion handle is
// resolved). Ping/pong control frames are handled transparently and
// never surfaced as messages.
func (s *Session) Next() (Message, bool) {
	var (
		buf        []byte
		bufType    MessageType
		reassembly bool
	)

	for {
		frame, err := readFrame(s.conn.r)
		if err != nil {
			s.finishClose(CloseInfo{Code: 1006, Reason: err.Error()})
			return Message{}, false
		}

		switch frame.Opcode {
		case OpPing:
			if werr := writeFrame(s.conn.w, OpPong, true, frame.Payload); werr != nil {
				s.finishClose(CloseInfo{Code: 1006, Reason: werr.Error()})
				return Message{}, false
			}
			continue

		case OpPong:
			continue

		case OpClose:
			code, reason := parseClosePayload(frame.Payload)
			if !validCloseCode(code) {
				code = 1002
				reason = "invalid close code"
			}
			_ = writeFrame(s.conn.w, OpClose, true, frame.Payload)
			s.finishClose(CloseInfo{Code: code, Reason: reason})
			return Message{}, false

		case OpText, OpBinary:
			if reassembly {
				s.finishClose(CloseInfo{Code: 1002, Reason: "unexpected new message mid-fragmentation"})
				return Message{}, false
			}
			bufType = TextMessage
			if frame.Opcode == OpBinary {
				bufType = BinaryMessage
			}
			buf = append(buf[:0], frame.Payload...)
			if frame.Fin {
				return Message{Type: bufType, Data: buf}, true
			}
			reassembly = true

		case OpContinuation:
			if !reassembly {
				s.finishClose(CloseInfo{Code: 1002, Reason: "continuation frame without preceding start"})
				return Message{}, false
			}
			buf = append(buf, frame.Payload...)
			if frame.Fin {
				reassembly = false
				return Message{Type: bufType, Data: buf}, true
			}

		default:
			s.finishClose(CloseInfo{Code: 1002, Reason: "unsupported opcode"})
			return Message{}, false
		}
	}
}

// Send writes a complete, unfragmented text or binary message.
func (s *Session) Send(mt MessageType, data []byte) error {
	opcode := OpText
	if mt == BinaryMessage {
		opcode = OpBinary
	}
	return writeFrame(s.conn.w, opcode, true, data)
}

// Ping sends a ping frame carrying payload (<=125 bytes).
func (s *Session) Ping(payload []byte) error {
	return writeFrame(s.conn.w, OpPing, true, payload)
}

// Close initiates (or completes, if the peer already sent one) the
// closing handshake with the given code and reason, then closes the
// socket. Done resolves with the negotiated CloseInfo.
func (s *Session) Close(code uint16, reason string) error {
	if !validCloseCode(code) {
		return ErrInvalidCloseCode
	}
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, code)
	copy(payload[2:], reason)

	err := writeFrame(s.conn.w, OpClose, true, payload)
	s.finishClose(CloseInfo{Code: code, Reason: reason})
	return err
}

// Done returns a channel that receives exactly once, when the peer or
// local code closes the session.
func (s *Session) Done() <-chan CloseInfo {
	return s.closeCh
}

func (s *Session) finishClose(info CloseInfo) {
	s.closeOnce.Do(func() {
		s.closeInfo = info
		s.closeCh <- info
		_ = s.conn.Close()
	})
}

func parseClosePayload(payload []byte) (code uint16, reason string) {
	if len(payload) < 2 {
		return 1005, ""
	}
	return binary.BigEndian.Uint16(payload[:2]), string(payload[2:])
}

// validCloseCode reports whether code falls in one of RFC 6455's
// defined-or-reserved-for-use ranges (spec.md §4.10).
func validCloseCode(code uint16) bool {
	switch {
	case code >= 1000 && code <= 1003:
		return true
	case code >= 1007 && code <= 1011:
		return true
	case code >= 3000 && code <= 3999:
		return true
	case code >= 4000 && code <= 4999:
		return true
	default:
		return false
	}
}
