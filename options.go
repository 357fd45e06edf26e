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
	"time"

	"github.com/ZaparooProject/go-dyn4/internal/frame"
)

// Option is a functional option for configuring a Drive.
type Option func(*Drive) error

// WithAddress sets the drive's bus address (0-127). The default is 0,
// matching a factory-fresh drive.
func WithAddress(addr byte) Option {
	return func(d *Drive) error {
		if addr > frame.MaxAddress {
			return fmt.Errorf("%w: address %#02x", ErrValueRange, addr)
		}
		d.config.Address = addr
		return nil
	}
}

// WithTimeout sets the response window for each transaction.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Drive) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout %v", ErrValueRange, timeout)
		}
		d.config.Timeout = timeout
		d.session.SetTimeout(timeout)
		return nil
	}
}

// WithReadRetries sets how many response frames a read transaction may
// examine while waiting for the expected function ID.
func WithReadRetries(n int) Option {
	return func(d *Drive) error {
		if n < 1 {
			return fmt.Errorf("%w: read retries %d", ErrValueRange, n)
		}
		d.config.ReadRetries = n
		return nil
	}
}
