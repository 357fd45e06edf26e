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

/*
Package dyn4 is a pure Go driver for DMM DYN4 series servo drives over
their RS-232/RS-485 serial protocol.

The library covers the documented read set (gains, limits, gear ratio,
status and configuration words, absolute position, torque current),
constant-speed control, and configuration writes. It builds and
validates the drive's 7-bit framed packets, matches responses to
requests, resynchronizes on corrupted input, and converts raw register
values to engineering units.

Basic usage:

	import (
	    dyn4 "github.com/ZaparooProject/go-dyn4"
	    "github.com/ZaparooProject/go-dyn4/transport/uart"
	)

	port, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	drive, err := dyn4.New(port,
	    dyn4.WithAddress(0),
	    dyn4.WithTimeout(500*time.Millisecond),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer drive.Close()

	status, err := drive.ReadStatus()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(status)

	current, err := drive.ReadTorqueCurrent()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("torque current: %.2f A\n", current)

	// Requires RS232 input with speed servo mode on the drive.
	if err := drive.SetSpeed(50); err != nil {
	    log.Fatal(err)
	}

Each call is one blocking request/response transaction; a session
carries exactly one outstanding request, and a second concurrent call
fails with ErrBusy rather than interleave on the wire. Timeouts and
corrupted frames are returned as typed errors so a control loop can
tell a retryable glitch from a configuration problem; IsRetryable
encodes that distinction, and Retry wraps it for callers that want
bounded resends.

Drives on different ports are independent: open one Drive per port,
each from its own goroutine if needed. The register descriptor table
is immutable and shared.
*/
package dyn4
