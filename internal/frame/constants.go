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

// Package frame implements the DYN4 serial frame codec.
//
// A frame is 4 to 7 bytes: a drive ID byte, a function byte, one to
// four data bytes and a trailing check byte. Only the ID byte has a
// clear most significant bit, which makes it the start-of-frame marker
// on an otherwise continuous byte stream. The function byte carries the
// payload length minus one in bits 5-6 and the 5-bit function ID in
// bits 0-4. Data bytes each carry 7 payload bits with the MSB set.
package frame

// Wire layout constants.
const (
	// MarkerBit is set on every byte of a frame except the leading ID byte.
	MarkerBit = 0x80

	// MaxAddress is the highest drive ID representable in the 7-bit ID byte.
	MaxAddress = 0x7F

	// FuncMask extracts the function ID from the function byte.
	FuncMask = 0x1F

	// LengthShift and LengthMask extract the payload length field
	// (payload byte count minus one) from the function byte.
	LengthShift = 5
	LengthMask  = 0x03

	// MinLength is the shortest legal frame: ID + function + one data
	// byte + check byte.
	MinLength = 4

	// MaxLength is the longest legal frame (four data bytes).
	MaxLength = 7

	// MaxPayload is the maximum number of data bytes in one frame.
	MaxPayload = 4
)

// Host function IDs (commands sent to the drive).
const (
	FnSetOrigin       = 0x00
	FnGoAbsolutePos   = 0x01
	FnMakeLinearLine  = 0x02
	FnGoRelativePos   = 0x03
	FnMakeCircularArc = 0x04
	FnAssignDriveID   = 0x05
	FnReadDriveID     = 0x06
	FnSetDriveConfig  = 0x07
	FnReadDriveConfig = 0x08
	FnReadDriveStatus = 0x09
	FnTurnConstSpeed  = 0x0A
	FnGeneralRead     = 0x0E
	FnSetMainGain     = 0x10
	FnSetSpeedGain    = 0x11
	FnSetIntGain      = 0x12
	FnSetTrqCons      = 0x13
	FnSetHighSpeed    = 0x14
	FnSetHighAccel    = 0x15
	FnSetPosOnRange   = 0x16
	FnSetGearNumber   = 0x17
	FnReadMainGain    = 0x18
	FnReadSpeedGain   = 0x19
	FnReadIntGain     = 0x1A
	FnReadTrqCons     = 0x1B
	FnReadHighSpeed   = 0x1C
	FnReadHighAccel   = 0x1D
	FnReadPosOnRange  = 0x1E
	FnReadGearNumber  = 0x1F
)

// Drive function IDs (responses sent by the drive).
const (
	IsMainGain   = 0x10
	IsSpeedGain  = 0x11
	IsIntGain    = 0x12
	IsTrqCons    = 0x13
	IsHighSpeed  = 0x14
	IsHighAccel  = 0x15
	IsDriveID    = 0x16
	IsPosOnRange = 0x17
	IsGearNumber = 0x18
	IsStatus     = 0x19
	IsConfig     = 0x1A
	IsAbsPos32   = 0x1B
	IsTrqCurrent = 0x1E
)

// ValidReadTarget reports whether id may be requested through a
// General_Read command. The drive only answers for IDs 0x10-0x1B and
// 0x1E.
func ValidReadTarget(id byte) bool {
	return (id >= IsMainGain && id <= IsAbsPos32) || id == IsTrqCurrent
}
