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

import "time"

// Port is the serial channel the session talks through. It is
// implemented by transport/uart for real hardware and by the mock
// ports in this package for tests. Opening and configuring the port
// (device path, baud rate, parity) is the caller's responsibility.
//
// Read must honor the timeout set with SetReadTimeout and return
// (0, nil) when it expires with no data, the convention of
// go.bug.st/serial ports.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// PortNamer is optionally implemented by ports that know their device
// path; the name is used in error context and debug output.
type PortNamer interface {
	Name() string
}

func portName(p Port) string {
	if n, ok := p.(PortNamer); ok {
		return n.Name()
	}
	return ""
}
