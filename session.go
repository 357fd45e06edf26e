// go-dyn4
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-dyn4.
//
// go-dyn4 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-dyn4 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-dyn4; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package dyn4

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bangzek/clock"

	"github.com/ZaparooProject/go-dyn4/internal/frame"
)

const (
	// DefaultTimeout is the default window for a complete response
	// frame to arrive.
	DefaultTimeout = 500 * time.Millisecond

	// pollInterval is the per-Read timeout on the underlying port. The
	// session polls at this granularity until the response deadline.
	pollInterval = 30 * time.Millisecond
)

var ctime = clock.New()

// SetClock replaces the time source used for response deadlines.
// Intended for tests; the default is the system clock.
func SetClock(c clock.Clock) {
	ctime = c
}

// Session owns one serial channel to one drive and carries at most one
// request/response transaction at a time. It is an exclusive resource:
// concurrent transactions on the same session fail with ErrBusy rather
// than interleave on the wire.
type Session struct {
	port    Port
	timeout time.Duration
	busy    atomic.Bool
}

// NewSession wraps an open port. The port's read timeout is set to the
// session's polling granularity; the response window is enforced by
// the session itself.
func NewSession(port Port, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		return nil, NewTransportError("configure", portName(port), err, ErrorTypePermanent)
	}
	return &Session{port: port, timeout: timeout}, nil
}

// SetTimeout changes the response window for subsequent transactions.
func (s *Session) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

// Timeout returns the current response window.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// Close releases the serial channel. The session must not be used
// afterwards.
func (s *Session) Close() error {
	if err := s.port.Close(); err != nil {
		return NewTransportError("close", portName(s.port), err, ErrorTypePermanent)
	}
	return nil
}

// Flush drains any stale bytes sitting in the receive buffer. Called
// after opening so a previous conversation's tail cannot be mistaken
// for a response.
func (s *Session) Flush() error {
	var b [64]byte
	for {
		n, err := s.port.Read(b[:])
		if err != nil {
			return NewTransportError("flush", portName(s.port), err, ErrorTypeTransient)
		}
		if n == 0 {
			return nil
		}
	}
}

// Send writes one complete request frame. It fails with ErrBusy if a
// transaction is already in flight on this session.
func (s *Session) Send(b []byte) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)
	return s.send(b)
}

func (s *Session) send(b []byte) error {
	debugf("tx: % X", b)
	n, err := s.port.Write(b)
	if err != nil {
		return NewTransportError("write", portName(s.port), err, ErrorTypeTransient)
	}
	if n != len(b) {
		return NewTransportError("write", portName(s.port), ErrShortWrite, ErrorTypeTransient)
	}
	return nil
}

// ReadFrame blocks until one complete frame has been received or the
// session timeout elapses. It fails with ErrBusy if a transaction is
// already in flight.
func (s *Session) ReadFrame() ([]byte, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)
	return s.readFrame()
}

// readFrame accumulates bytes into a frame, resynchronizing on the
// start marker: a byte with a clear MSB always begins a new frame, and
// continuation bytes that arrive with no frame open are dropped. On
// timeout any partial frame is discarded, so the next transaction
// starts from a clean stream.
func (s *Session) readFrame() ([]byte, error) {
	buf := make([]byte, 0, frame.MaxLength)
	expected := 0
	deadline := ctime.Now().Add(s.timeout)

	var rb [1]byte
	for {
		n, err := s.port.Read(rb[:])
		if err != nil {
			return nil, NewTransportError("read", portName(s.port), err, ErrorTypeTransient)
		}
		if n > 0 {
			x := rb[0]
			switch {
			case x&frame.MarkerBit == 0:
				// Start marker. Abandons any partial frame.
				buf = append(buf[:0], x)
				expected = 0
			case len(buf) > 0:
				buf = append(buf, x)
			default:
				// Stray continuation byte with no frame open.
				debugf("rx: dropping stray byte %#02x", x)
			}
			if len(buf) == 2 {
				expected = frame.DeclaredLength(buf[1])
			}
			if expected > 0 && len(buf) == expected {
				debugf("rx: % X", buf)
				return buf, nil
			}
		}
		if ctime.Now().After(deadline) {
			return nil, NewTimeoutError("read", portName(s.port))
		}
	}
}

// Transact sends a request and reads response frames until one
// carrying the wanted function ID arrives. Frames for other function
// IDs (late answers from a previous exchange, unsolicited reports) are
// skipped, up to maxReads frames in total. The returned frame is raw;
// callers validate it with the codec.
func (s *Session) Transact(tx []byte, want byte, maxReads int) ([]byte, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	if err := s.send(tx); err != nil {
		return nil, err
	}

	if maxReads < 1 {
		maxReads = 1
	}
	for i := 0; i < maxReads; i++ {
		rx, err := s.readFrame()
		if err != nil {
			return nil, err
		}
		if rx[1]&frame.FuncMask == want {
			return rx, nil
		}
		debugf("rx: skipping function %#02x, want %#02x", rx[1]&frame.FuncMask, want)
	}
	return nil, fmt.Errorf("%w: want %#02x", ErrUnexpectedResponse, want)
}
