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
	"sync"
	"time"
)

// MockPort is a scripted in-memory Port for tests. Reads pop queued
// byte chunks; an empty queue behaves like a read timeout (0, nil).
// Writes are recorded and may be inspected afterwards.
type MockPort struct {
	// ResponseFunc, when set, is called with each written frame and
	// its return value is queued as read data.
	ResponseFunc func(tx []byte) []byte

	mu     sync.Mutex
	reads  [][]byte
	writes [][]byte
	closed bool
}

// NewMockPort creates an empty mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// QueueRead appends a chunk of bytes to be returned by future Reads.
// Chunks are returned at most whole, so tests can simulate a response
// arriving in arbitrary fragments.
func (m *MockPort) QueueRead(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, append([]byte(nil), b...))
}

// Writes returns a copy of all frames written so far.
func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Read pops bytes from the queued chunks. With nothing queued it
// returns (0, nil), the timeout convention of serial ports.
func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if len(m.reads) == 0 {
		return 0, nil
	}

	n := copy(p, m.reads[0])
	if n == len(m.reads[0]) {
		m.reads = m.reads[1:]
	} else {
		m.reads[0] = m.reads[0][n:]
	}
	return n, nil
}

// Write records the frame and, when ResponseFunc is set, queues its
// response.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	if m.ResponseFunc != nil {
		if rx := m.ResponseFunc(p); len(rx) > 0 {
			m.reads = append(m.reads, append([]byte(nil), rx...))
		}
	}
	return len(p), nil
}

// SetReadTimeout is a no-op; the mock does not block.
func (*MockPort) SetReadTimeout(time.Duration) error {
	return nil
}

// Close marks the port closed; subsequent reads and writes fail.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Name implements PortNamer.
func (*MockPort) Name() string {
	return "mock"
}

// BlockingMockPort is a Port whose reads block until Unblock or Close
// is called. Used to hold a transaction open while testing the
// single-outstanding-request precondition and context cancellation.
type BlockingMockPort struct {
	mu        sync.Mutex
	blockChan chan struct{}
	freeReads int
	closed    bool
}

// NewBlockingMockPort creates a new blocking mock port. The first read
// returns empty immediately so the session's opening flush completes;
// reads after that block.
func NewBlockingMockPort() *BlockingMockPort {
	return &BlockingMockPort{blockChan: make(chan struct{}), freeReads: 1}
}

// Read blocks until Unblock or Close, then behaves like a timed-out
// read.
func (m *BlockingMockPort) Read([]byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if m.freeReads > 0 {
		m.freeReads--
		m.mu.Unlock()
		return 0, nil
	}
	ch := m.blockChan
	m.mu.Unlock()

	<-ch
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return 0, ErrPortClosed
	}
	return 0, nil
}

// Write accepts the frame without blocking.
func (m *BlockingMockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	return len(p), nil
}

// Unblock releases all currently blocked reads.
func (m *BlockingMockPort) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
}

// SetReadTimeout is a no-op.
func (*BlockingMockPort) SetReadTimeout(time.Duration) error {
	return nil
}

// Close releases blocked reads and marks the port closed.
func (m *BlockingMockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// Name implements PortNamer.
func (*BlockingMockPort) Name() string {
	return "blocking-mock"
}
