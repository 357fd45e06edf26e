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
	"math"

	"github.com/ZaparooProject/go-dyn4/internal/frame"
)

// EncoderCountsPerRev is the DYN4 encoder resolution, used to convert
// position deltas to revolutions.
const EncoderCountsPerRev = 65536

// Access describes whether the host may write a register or only read
// the drive's report of it.
type Access uint8

// Register access modes.
const (
	ReadOnly Access = iota
	ReadWrite
)

// Register describes one drive parameter: its response function ID,
// the host functions that read and write it, its payload width on the
// wire, and the scale/offset mapping between raw counts and
// engineering units. The table below is static and never mutated.
type Register struct {
	Name    string
	Unit    string
	Scale   float64
	Offset  float64
	ID      byte // drive response function ID
	ReadFn  byte // host function that requests it
	WriteFn byte // host function that sets it (ReadWrite only)
	Width   int  // payload data bytes
	Signed  bool
	Access  Access
}

// SpeedSetpoint describes the operand of the Turn_ConstSpeed command.
// It has no response ID: the drive does not echo the setpoint back, so
// the descriptor exists for range checking and unit bookkeeping only.
var SpeedSetpoint = Register{
	Name:    "speed setpoint",
	Unit:    "rpm",
	Scale:   1,
	ID:      frame.FnTurnConstSpeed,
	WriteFn: frame.FnTurnConstSpeed,
	Width:   4,
	Signed:  true,
	Access:  ReadWrite,
}

// registers is the documented DYN4 read set, keyed by the drive's
// response function ID. AbsPos32 and TrqCurrent are fetched through
// General_Read; everything else has a dedicated host read function.
var registers = map[byte]Register{
	frame.IsMainGain: {
		ID: frame.IsMainGain, Name: "main gain",
		ReadFn: frame.FnReadMainGain, WriteFn: frame.FnSetMainGain,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsSpeedGain: {
		ID: frame.IsSpeedGain, Name: "speed gain",
		ReadFn: frame.FnReadSpeedGain, WriteFn: frame.FnSetSpeedGain,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsIntGain: {
		ID: frame.IsIntGain, Name: "integration gain",
		ReadFn: frame.FnReadIntGain, WriteFn: frame.FnSetIntGain,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsTrqCons: {
		ID: frame.IsTrqCons, Name: "torque constant",
		ReadFn: frame.FnReadTrqCons, WriteFn: frame.FnSetTrqCons,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsHighSpeed: {
		ID: frame.IsHighSpeed, Name: "max speed",
		ReadFn: frame.FnReadHighSpeed, WriteFn: frame.FnSetHighSpeed,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsHighAccel: {
		ID: frame.IsHighAccel, Name: "max acceleration",
		ReadFn: frame.FnReadHighAccel, WriteFn: frame.FnSetHighAccel,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsDriveID: {
		ID: frame.IsDriveID, Name: "drive id",
		ReadFn: frame.FnReadDriveID,
		Width:  1, Scale: 1, Access: ReadOnly,
	},
	frame.IsPosOnRange: {
		ID: frame.IsPosOnRange, Name: "position on-range",
		Unit:   "counts",
		ReadFn: frame.FnReadPosOnRange, WriteFn: frame.FnSetPosOnRange,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsGearNumber: {
		ID: frame.IsGearNumber, Name: "gear number",
		ReadFn: frame.FnReadGearNumber, WriteFn: frame.FnSetGearNumber,
		Width: 4, Scale: 1, Access: ReadWrite,
	},
	frame.IsStatus: {
		ID: frame.IsStatus, Name: "drive status",
		ReadFn: frame.FnReadDriveStatus,
		Width:  1, Scale: 1, Access: ReadOnly,
	},
	frame.IsConfig: {
		ID: frame.IsConfig, Name: "drive config",
		ReadFn: frame.FnReadDriveConfig, WriteFn: frame.FnSetDriveConfig,
		Width: 1, Scale: 1, Access: ReadWrite,
	},
	frame.IsAbsPos32: {
		ID: frame.IsAbsPos32, Name: "absolute position",
		Unit:   "counts",
		ReadFn: frame.FnGeneralRead,
		Width:  4, Signed: true, Scale: 1, Access: ReadOnly,
	},
	frame.IsTrqCurrent: {
		ID: frame.IsTrqCurrent, Name: "torque current",
		Unit:   "A",
		ReadFn: frame.FnGeneralRead,
		Width:  2, Signed: true, Scale: 0.01, Access: ReadOnly,
	},
}

// RegisterByID looks up the descriptor for a drive response function
// ID.
func RegisterByID(id byte) (Register, error) {
	r, ok := registers[id]
	if !ok {
		return Register{}, fmt.Errorf("%w: %#02x", ErrUnknownRegister, id)
	}
	return r, nil
}

// Registers returns the full descriptor table sorted by ID.
func Registers() []Register {
	out := make([]Register, 0, len(registers))
	for id := byte(0); id < 0x20; id++ {
		if r, ok := registers[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// rawRange returns the raw values representable in the register's
// payload width: signed base-128 for signed registers, unsigned
// otherwise.
func (r Register) rawRange() (minRaw, maxRaw int64) {
	bits := 7 * r.Width
	if r.Signed {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}

// Engineering converts a raw register value to engineering units.
func (r Register) Engineering(raw int32) float64 {
	return float64(raw)*r.Scale + r.Offset
}

// Raw converts an engineering value to the nearest raw register value.
// It fails with ErrValueRange when the result does not fit the
// register's payload width.
func (r Register) Raw(v float64) (int32, error) {
	raw := math.Round((v - r.Offset) / r.Scale)
	minRaw, maxRaw := r.rawRange()
	if !(raw >= float64(minRaw) && raw <= float64(maxRaw)) {
		return 0, fmt.Errorf("%w: %s %v%s", ErrValueRange, r.Name, v, r.Unit)
	}
	return int32(raw), nil
}

// Decode reassembles a raw register value from response payload bytes.
func (r Register) Decode(data []byte) int32 {
	if r.Signed {
		return frame.UnpackValue(data)
	}
	return int32(frame.UnpackUnsigned(data))
}
