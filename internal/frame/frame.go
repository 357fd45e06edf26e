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

package frame

import "errors"

// Codec errors. The root package re-exports these so callers can test
// with errors.Is without importing an internal package.
var (
	// ErrMalformed indicates a frame that is too short, has no start
	// byte, or whose declared length disagrees with the bytes present.
	ErrMalformed = errors.New("malformed frame")

	// ErrChecksumMismatch indicates the trailing check byte does not
	// match the sum of the preceding bytes.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")

	// ErrPayloadSize indicates an encode request with an empty payload
	// or one longer than MaxPayload bytes.
	ErrPayloadSize = errors.New("invalid payload size")

	// ErrAddress indicates a drive address outside 0-127.
	ErrAddress = errors.New("drive address out of range")
)

// Frame is a decoded DYN4 frame. Data holds the 7-bit payload bytes
// with the marker bit already stripped.
type Frame struct {
	Data []byte
	Addr byte
	Fn   byte
}

// Checksum computes the trailing check byte for the given frame bytes
// (everything before the check byte itself): the low 7 bits of the
// byte sum, with the marker bit set.
func Checksum(b []byte) byte {
	var sum int
	for _, x := range b {
		sum += int(x)
	}
	return MarkerBit | byte(sum&0x7F)
}

// Encode serializes a command frame. payload holds 7-bit values; the
// marker bit is applied here. The check byte is always recomputed.
func Encode(addr, fn byte, payload []byte) ([]byte, error) {
	if len(payload) == 0 || len(payload) > MaxPayload {
		return nil, ErrPayloadSize
	}
	if addr > MaxAddress {
		return nil, ErrAddress
	}

	b := make([]byte, 0, len(payload)+3)
	b = append(b, addr)
	b = append(b, MarkerBit|byte(len(payload)-1)<<LengthShift|fn&FuncMask)
	for _, p := range payload {
		b = append(b, MarkerBit|p&0x7F)
	}
	return append(b, Checksum(b)), nil
}

// DeclaredLength returns the total frame length announced by a
// function byte: four bytes plus the length field.
func DeclaredLength(fn byte) int {
	return MinLength + int(fn>>LengthShift&LengthMask)
}

// Decode parses and validates a complete frame. It returns
// ErrMalformed for structural problems and ErrChecksumMismatch when
// the check byte fails; a frame that passes both is returned with the
// marker bits stripped from its payload.
func Decode(b []byte) (Frame, error) {
	if len(b) < MinLength {
		return Frame{}, ErrMalformed
	}
	if b[0]&MarkerBit != 0 {
		return Frame{}, ErrMalformed
	}
	for _, x := range b[1:] {
		if x&MarkerBit == 0 {
			return Frame{}, ErrMalformed
		}
	}
	if len(b) != DeclaredLength(b[1]) {
		return Frame{}, ErrMalformed
	}
	if Checksum(b[:len(b)-1]) != b[len(b)-1] {
		return Frame{}, ErrChecksumMismatch
	}

	data := make([]byte, len(b)-3)
	for i, x := range b[2 : len(b)-1] {
		data[i] = x & 0x7F
	}
	return Frame{
		Addr: b[0],
		Fn:   b[1] & FuncMask,
		Data: data,
	}, nil
}

// PackValue splits a signed value into width big-endian 7-bit bytes,
// most significant first. Values outside the representable range are
// silently truncated; range checking belongs to the register layer.
func PackValue(v int32, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = byte(v>>(7*(width-1-i))) & 0x7F
	}
	return b
}

// UnpackValue reassembles a signed value from big-endian 7-bit bytes.
// The sign bit is bit 6 of the first byte.
func UnpackValue(data []byte) int32 {
	if len(data) == 0 {
		return 0
	}
	// Shift the 7-bit value into the top of a signed byte and back to
	// sign-extend bit 6.
	v := int32(int8(data[0]<<1) >> 1)
	for _, x := range data[1:] {
		v = v<<7 | int32(x&0x7F)
	}
	return v
}

// UnpackUnsigned reassembles an unsigned value from big-endian 7-bit
// bytes. Used for counters and words that have no sign bit.
func UnpackUnsigned(data []byte) uint32 {
	var v uint32
	for _, x := range data {
		v = v<<7 | uint32(x&0x7F)
	}
	return v
}
