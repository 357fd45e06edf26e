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

// Package uart provides the serial port implementation for DYN4
// drives, built on go.bug.st/serial. DYN4 drives speak 38400 baud,
// 8 data bits, no parity, one stop bit.
package uart

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the fixed DYN4 serial speed.
const DefaultBaudRate = 38400

// Transport is an open serial port implementing dyn4.Port.
type Transport struct {
	port     serial.Port
	portName string
}

// Option configures the transport before the port is opened.
type Option func(*serial.Mode)

// WithBaudRate overrides the baud rate. Only useful for drives behind
// rate-converting adapters; the DYN4 itself is fixed at 38400.
func WithBaudRate(baud int) Option {
	return func(m *serial.Mode) {
		m.BaudRate = baud
	}
}

// New opens the named serial device with DYN4 settings.
func New(path string, opts ...Option) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	for _, opt := range opts {
		opt(mode)
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return &Transport{port: port, portName: path}, nil
}

// Read reads available bytes, returning (0, nil) when the read timeout
// expires with no data.
func (t *Transport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("serial read on %s: %w", t.portName, err)
	}
	return n, nil
}

// Write writes the full buffer to the port.
func (t *Transport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write on %s: %w", t.portName, err)
	}
	return n, nil
}

// SetReadTimeout sets the per-Read timeout.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("set read timeout on %s: %w", t.portName, err)
	}
	return nil
}

// ResetInputBuffer discards unread bytes buffered by the OS driver.
func (t *Transport) ResetInputBuffer() error {
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer on %s: %w", t.portName, err)
	}
	return nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.portName, err)
	}
	t.port = nil
	return nil
}

// IsConnected reports whether the port is open.
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Name returns the device path.
func (t *Transport) Name() string {
	return t.portName
}
