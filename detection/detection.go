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

// Package detection enumerates serial ports that may have a DYN4
// drive attached. Detection is passive: it lists candidate USB-serial
// adapters without probing them, since an unsolicited frame to the
// wrong device can have side effects.
package detection

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceInfo describes one candidate serial port.
type DeviceInfo struct {
	// Path is the OS device path (e.g. /dev/ttyUSB0, COM3).
	Path string
	// Product is the USB product string when available.
	Product string
	// VIDPID is "VID:PID" in upper-case hex for USB adapters, empty
	// otherwise.
	VIDPID string
}

// Options controls enumeration.
type Options struct {
	// Blocklist holds VID:PID pairs that must not be listed.
	Blocklist []string
	// IncludeNonUSB also lists on-board serial ports, which cannot be
	// identified by VID:PID.
	IncludeNonUSB bool
}

// Ports lists candidate serial ports. With nil options, only USB
// adapters outside the default blocklist are returned.
func Ports(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = &Options{Blocklist: DefaultBlocklist()}
	}

	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	var out []DeviceInfo
	for _, p := range details {
		if !p.IsUSB {
			if opts.IncludeNonUSB {
				out = append(out, DeviceInfo{Path: p.Name})
			}
			continue
		}
		vidpid := strings.ToUpper(p.VID + ":" + p.PID)
		if IsBlocked(vidpid, opts.Blocklist) {
			continue
		}
		out = append(out, DeviceInfo{
			Path:    p.Name,
			Product: p.Product,
			VIDPID:  vidpid,
		})
	}
	return out, nil
}

// DefaultBlocklist returns VID:PID pairs of devices known to react
// badly to being opened during detection.
func DefaultBlocklist() []string {
	return []string{
		// Add problematic adapters here as discovered.
	}
}

// IsBlocked checks whether a VID:PID pair is on the blocklist.
// Comparison is case-insensitive.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}
