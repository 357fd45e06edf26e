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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-dyn4/internal/frame"
)

// respond builds a drive response frame; responses use the same wire
// layout as commands.
func respond(t *testing.T, addr, fn byte, payload []byte) []byte {
	t.Helper()
	b, err := frame.Encode(addr, fn, payload)
	require.NoError(t, err)
	return b
}

func newTestDrive(t *testing.T, mock *MockPort, opts ...Option) *Drive {
	t.Helper()
	d, err := New(mock, opts...)
	require.NoError(t, err)
	return d
}

func TestNewOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		check   func(*testing.T, *Drive)
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, d *Drive) {
				assert.Equal(t, byte(0), d.Address())
				assert.Equal(t, DefaultTimeout, d.Session().Timeout())
			},
		},
		{
			name: "with address",
			opts: []Option{WithAddress(0x05)},
			check: func(t *testing.T, d *Drive) {
				assert.Equal(t, byte(0x05), d.Address())
			},
		},
		{
			name: "with timeout",
			opts: []Option{WithTimeout(2 * time.Second)},
			check: func(t *testing.T, d *Drive) {
				assert.Equal(t, 2*time.Second, d.Session().Timeout())
			},
		},
		{
			name:    "address out of range",
			opts:    []Option{WithAddress(0x80)},
			wantErr: true,
		},
		{
			name:    "zero timeout",
			opts:    []Option{WithTimeout(0)},
			wantErr: true,
		},
		{
			name:    "zero read retries",
			opts:    []Option{WithReadRetries(0)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := New(NewMockPort(), tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValueRange)
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

// TestReadTorqueCurrent checks the complete exchange: the request
// bytes on the wire and the engineering conversion of the response.
// Raw 100 at 0.01 A per count reads back as exactly 1.00 A.
func TestReadTorqueCurrent(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0x01, frame.IsTrqCurrent, []byte{0x00, 0x64})
	}
	d := newTestDrive(t, mock, WithAddress(0x01))

	amps, err := d.ReadTorqueCurrent()
	require.NoError(t, err)
	assert.InDelta(t, 1.00, amps, 1e-9)

	writes := mock.Writes()
	require.Len(t, writes, 1)
	want := []byte{0x01, 0x8E, 0x9E, 0xAD} // General_Read of Is_TrqCurrent
	if !bytes.Equal(writes[0], want) {
		t.Errorf("request = % X, want % X", writes[0], want)
	}
}

func TestReadStatus(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0, frame.IsStatus, []byte{0x04}) // lost phase
	}
	d := newTestDrive(t, mock)

	status, err := d.ReadStatus()
	require.NoError(t, err)
	assert.Equal(t, Status{InPosition: true, Alarm: AlarmLostPhase}, status)

	alarm, err := d.ReadAlarm()
	require.NoError(t, err)
	assert.Equal(t, AlarmLostPhase, alarm)
}

func TestReadConfig(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0, frame.IsConfig, []byte{0x28})
	}
	d := newTestDrive(t, mock)

	cfg, err := d.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{Input: InputRS232, Servo: ServoSpeed, Enabled: true}, cfg)
}

func TestReadAbsolutePosition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload []byte
		want    int32
	}{
		{"zero", []byte{0x00, 0x00, 0x00, 0x00}, 0},
		{"one revolution", []byte{0x00, 0x04, 0x00, 0x00}, 65536},
		{"minus one count", []byte{0x7F, 0x7F, 0x7F, 0x7F}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockPort()
			mock.ResponseFunc = func(tx []byte) []byte {
				return respond(t, 0, frame.IsAbsPos32, tt.payload)
			}
			d := newTestDrive(t, mock)

			pos, err := d.ReadAbsolutePosition()
			require.NoError(t, err)
			assert.Equal(t, tt.want, pos)
		})
	}
}

func TestReadGearNumber(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0, frame.IsGearNumber, frame.PackValue(16<<14|1, 4))
	}
	d := newTestDrive(t, mock)

	num, den, err := d.ReadGearNumber()
	require.NoError(t, err)
	assert.Equal(t, 16, num)
	assert.Equal(t, 1, den)
}

func TestReadMainGain(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0, frame.IsMainGain, []byte{30})
	}
	d := newTestDrive(t, mock)

	gain, err := d.ReadMainGain()
	require.NoError(t, err)
	assert.Equal(t, 30, gain)

	// Dedicated host read function with an empty operand.
	writes := mock.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x98), writes[0][1]) // 0x80 | Read_MainGain
	assert.Equal(t, byte(0x80), writes[0][2])
}

// TestReadSkipsStaleResponse feeds a leftover answer from an earlier
// exchange before the real one; the read must skip it and still
// succeed.
func TestReadSkipsStaleResponse(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.QueueRead(respond(t, 0, frame.IsAbsPos32, []byte{0x00, 0x00, 0x00, 0x00}))
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0, frame.IsStatus, []byte{0x00})
	}
	d := newTestDrive(t, mock)

	status, err := d.ReadStatus()
	require.NoError(t, err)
	assert.True(t, status.InPosition)
}

// TestReadRejectsWrongWidthResponse feeds checksum-valid frames whose
// payload width disagrees with the register's documented byte count.
// Decoding them would yield plausible-looking garbage (a two-byte
// status word reads as a phantom alarm), so the read must reject the
// frame instead.
func TestReadRejectsWrongWidthResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		read    func(*Drive) error
		name    string
		payload []byte
		id      byte
	}{
		{
			name:    "status with an extra byte",
			id:      frame.IsStatus,
			payload: []byte{0x01, 0x04},
			read: func(d *Drive) error {
				_, err := d.ReadStatus()
				return err
			},
		},
		{
			name:    "position truncated to two bytes",
			id:      frame.IsAbsPos32,
			payload: []byte{0x01, 0x00},
			read: func(d *Drive) error {
				_, err := d.ReadAbsolutePosition()
				return err
			},
		},
		{
			name:    "torque current padded to four bytes",
			id:      frame.IsTrqCurrent,
			payload: []byte{0x00, 0x00, 0x00, 0x64},
			read: func(d *Drive) error {
				_, err := d.ReadTorqueCurrent()
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockPort()
			mock.ResponseFunc = func(tx []byte) []byte {
				return respond(t, 0x01, tt.id, tt.payload)
			}
			d := newTestDrive(t, mock, WithAddress(0x01))

			err := tt.read(d)
			require.ErrorIs(t, err, ErrFrameMalformed)
			assert.True(t, IsRetryable(err))
		})
	}
}

// TestReadAfterWrongWidthResponse checks the session survives a
// wrong-width frame: the next transaction succeeds.
func TestReadAfterWrongWidthResponse(t *testing.T) {
	t.Parallel()

	wide := true
	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		if wide {
			return respond(t, 0, frame.IsStatus, []byte{0x01, 0x04})
		}
		return respond(t, 0, frame.IsStatus, []byte{0x00})
	}
	d := newTestDrive(t, mock)

	_, err := d.ReadStatus()
	require.ErrorIs(t, err, ErrFrameMalformed)

	wide = false
	status, err := d.ReadStatus()
	require.NoError(t, err)
	assert.True(t, status.InPosition)
}

// TestReadCorruptedResponse corrupts the response check byte; the read
// must fail with ErrChecksumMismatch and the next read must succeed.
func TestReadCorruptedResponse(t *testing.T) {
	t.Parallel()

	corrupt := true
	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		rx := respond(t, 0, frame.IsStatus, []byte{0x00})
		if corrupt {
			rx[len(rx)-1] ^= 0x01
		}
		return rx
	}
	d := newTestDrive(t, mock)

	_, err := d.ReadStatus()
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.True(t, IsRetryable(err))

	corrupt = false
	status, err := d.ReadStatus()
	require.NoError(t, err)
	assert.True(t, status.InPosition)
}

func TestSetSpeed(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	if _, ok := d.TargetSpeed(); ok {
		t.Fatal("TargetSpeed() reported a setpoint before any SetSpeed")
	}

	require.NoError(t, d.SetSpeed(50))

	writes := mock.Writes()
	require.Len(t, writes, 1)
	want := []byte{0x00, 0xEA, 0x80, 0x80, 0x80, 0xB2, 0x9C} // Turn_ConstSpeed 50
	if !bytes.Equal(writes[0], want) {
		t.Errorf("request = % X, want % X", writes[0], want)
	}

	rpm, ok := d.TargetSpeed()
	require.True(t, ok)
	assert.Equal(t, 50, rpm)

	require.NoError(t, d.SetSpeed(-50))
	rpm, _ = d.TargetSpeed()
	assert.Equal(t, -50, rpm)
}

func TestSetSpeedRange(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	err := d.SetSpeed(1 << 27)
	require.ErrorIs(t, err, ErrValueRange)
	assert.False(t, IsRetryable(err))
	assert.Empty(t, mock.Writes(), "out-of-range setpoint must not reach the wire")

	if _, ok := d.TargetSpeed(); ok {
		t.Error("rejected setpoint recorded as target")
	}
}

func TestSetConfig(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	cfg := Config{Input: InputRS232, Servo: ServoSpeed, Enabled: true}
	require.NoError(t, d.SetConfig(cfg))

	writes := mock.Writes()
	require.Len(t, writes, 1)
	f, err := frame.Decode(writes[0])
	require.NoError(t, err)
	assert.Equal(t, byte(frame.FnSetDriveConfig), f.Fn)
	assert.Equal(t, cfg.Word(), f.Data[0])
}

func TestSetGains(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	require.NoError(t, d.SetMainGain(30))
	require.NoError(t, d.SetSpeedGain(25))
	require.NoError(t, d.SetIntGain(10))

	writes := mock.Writes()
	require.Len(t, writes, 3)
	wantFns := []byte{frame.FnSetMainGain, frame.FnSetSpeedGain, frame.FnSetIntGain}
	wantVals := []byte{30, 25, 10}
	for i, w := range writes {
		f, err := frame.Decode(w)
		require.NoError(t, err)
		assert.Equal(t, wantFns[i], f.Fn)
		assert.Equal(t, wantVals[i], f.Data[0])
	}

	err := d.SetMainGain(200)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestSetGearNumber(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	require.NoError(t, d.SetGearNumber(16, 1))

	writes := mock.Writes()
	require.Len(t, writes, 1)
	f, err := frame.Decode(writes[0])
	require.NoError(t, err)
	assert.Equal(t, byte(frame.FnSetGearNumber), f.Fn)
	assert.Equal(t, int32(16<<14|1), frame.UnpackValue(f.Data))

	require.ErrorIs(t, d.SetGearNumber(0x4000, 1), ErrValueRange)
	require.ErrorIs(t, d.SetGearNumber(1, -1), ErrValueRange)
}

func TestSetOrigin(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)

	require.NoError(t, d.SetOrigin())

	writes := mock.Writes()
	require.Len(t, writes, 1)
	want := []byte{0x00, 0x80, 0x80, 0x80}
	if !bytes.Equal(writes[0], want) {
		t.Errorf("request = % X, want % X", writes[0], want)
	}
}

func TestWriteReadOnlyRegister(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, NewMockPort())

	err := d.writeRegister(frame.IsTrqCurrent, 0)
	require.ErrorIs(t, err, ErrReadOnly)

	err = d.writeRegister(frame.IsStatus, 0)
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestMeasureSpeed(t *testing.T) {
	t.Parallel()

	positions := []int32{0, 65536}
	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		p := positions[0]
		if len(positions) > 1 {
			positions = positions[1:]
		}
		return respond(t, 0, frame.IsAbsPos32, frame.PackValue(p, 4))
	}
	d := newTestDrive(t, mock)

	// One revolution over the nominal 10 ms window is 6000 RPM.
	rpm, err := d.MeasureSpeed(10 * time.Millisecond)
	require.NoError(t, err)
	assert.InDelta(t, 6000, rpm, 1e-6)

	_, err = d.MeasureSpeed(0)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestDriveAddressOnWire(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	mock.ResponseFunc = func(tx []byte) []byte {
		return respond(t, 0x21, frame.IsStatus, []byte{0x00})
	}
	d := newTestDrive(t, mock, WithAddress(0x21))

	_, err := d.ReadStatus()
	require.NoError(t, err)

	writes := mock.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x21), writes[0][0])
}

func TestDriveClose(t *testing.T) {
	t.Parallel()

	mock := NewMockPort()
	d := newTestDrive(t, mock)
	require.NoError(t, d.Close())

	_, err := d.ReadStatus()
	require.ErrorIs(t, err, ErrPortClosed)
}
