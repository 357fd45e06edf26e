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

// DriveConfig contains configuration for a Drive.
type DriveConfig struct {
	// Timeout is the response window per transaction.
	Timeout time.Duration
	// ReadRetries is how many response frames a read may examine while
	// waiting for the expected function ID.
	ReadRetries int
	// Address is the drive's bus address.
	Address byte
}

// DefaultDriveConfig returns the default drive configuration.
func DefaultDriveConfig() *DriveConfig {
	return &DriveConfig{
		Timeout:     DefaultTimeout,
		ReadRetries: 3,
		Address:     0,
	}
}

// Drive is a client for one DYN4 servo drive on a serial channel.
//
// Thread safety: a Drive is not safe for concurrent use. Every call is
// one blocking request/response transaction on the underlying session;
// a second call issued while one is in flight fails with ErrBusy.
// Drives on separate ports are fully independent.
type Drive struct {
	session   *Session
	config    *DriveConfig
	target    int32
	hasTarget bool
}

// New creates a Drive on an open port and drains any stale bytes from
// the receive buffer. The caller keeps responsibility for the port's
// serial parameters (DYN4 drives speak 38400 baud, 8N1).
func New(port Port, opts ...Option) (*Drive, error) {
	cfg := DefaultDriveConfig()
	session, err := NewSession(port, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	drive := &Drive{session: session, config: cfg}
	for _, opt := range opts {
		if err := opt(drive); err != nil {
			return nil, err
		}
	}

	if err := drive.session.Flush(); err != nil {
		return nil, err
	}
	return drive, nil
}

// Close releases the serial channel.
func (d *Drive) Close() error {
	return d.session.Close()
}

// Session exposes the underlying transport session.
func (d *Drive) Session() *Session {
	return d.session
}

// Address returns the configured drive bus address.
func (d *Drive) Address() byte {
	return d.config.Address
}

// readRegister performs one complete read transaction for the given
// drive response ID and returns the raw register value.
func (d *Drive) readRegister(id byte) (int32, error) {
	reg, err := RegisterByID(id)
	if err != nil {
		return 0, err
	}

	// AbsPos32 and TrqCurrent go through General_Read with the target
	// ID as payload; everything else has a dedicated host function
	// that takes an empty operand.
	payload := []byte{0x00}
	if reg.ReadFn == frame.FnGeneralRead {
		if !frame.ValidReadTarget(id) {
			return 0, fmt.Errorf("%w: %#02x is not a readable target", ErrUnknownRegister, id)
		}
		payload[0] = id
	}
	tx, err := frame.Encode(d.config.Address, reg.ReadFn, payload)
	if err != nil {
		return 0, err
	}

	rx, err := d.session.Transact(tx, id, d.config.ReadRetries)
	if err != nil {
		return 0, err
	}
	f, err := frame.Decode(rx)
	if err != nil {
		return 0, err
	}
	// A checksum-valid frame of the wrong width would decode to a
	// plausible-looking garbage value; the drive always answers with
	// the register's documented byte count.
	if len(f.Data) != reg.Width {
		return 0, fmt.Errorf("%w: %s response carries %d data bytes, want %d",
			ErrFrameMalformed, reg.Name, len(f.Data), reg.Width)
	}
	return reg.Decode(f.Data), nil
}

// writeRegister sends one write command. DYN4 write commands are not
// acknowledged; a rejected command surfaces as AlarmBadCommand on the
// next status read.
func (d *Drive) writeRegister(id byte, raw int32) error {
	reg, err := RegisterByID(id)
	if err != nil {
		return err
	}
	if reg.Access != ReadWrite {
		return fmt.Errorf("%w: %s", ErrReadOnly, reg.Name)
	}

	tx, err := frame.Encode(d.config.Address, reg.WriteFn, frame.PackValue(raw, reg.Width))
	if err != nil {
		return err
	}
	return d.session.Send(tx)
}

// ReadMainGain reads the servo main gain.
func (d *Drive) ReadMainGain() (int, error) {
	v, err := d.readRegister(frame.IsMainGain)
	return int(v), err
}

// ReadSpeedGain reads the servo speed gain.
func (d *Drive) ReadSpeedGain() (int, error) {
	v, err := d.readRegister(frame.IsSpeedGain)
	return int(v), err
}

// ReadIntGain reads the servo integration gain.
func (d *Drive) ReadIntGain() (int, error) {
	v, err := d.readRegister(frame.IsIntGain)
	return int(v), err
}

// ReadTorqueConstant reads the torque filter constant.
func (d *Drive) ReadTorqueConstant() (int, error) {
	v, err := d.readRegister(frame.IsTrqCons)
	return int(v), err
}

// ReadMaxSpeed reads the configured speed limit.
func (d *Drive) ReadMaxSpeed() (int, error) {
	v, err := d.readRegister(frame.IsHighSpeed)
	return int(v), err
}

// ReadMaxAcceleration reads the configured acceleration limit.
func (d *Drive) ReadMaxAcceleration() (int, error) {
	v, err := d.readRegister(frame.IsHighAccel)
	return int(v), err
}

// ReadDriveID reads the drive's own bus address.
func (d *Drive) ReadDriveID() (int, error) {
	v, err := d.readRegister(frame.IsDriveID)
	return int(v), err
}

// ReadPositionOnRange reads the in-position window, in encoder counts.
func (d *Drive) ReadPositionOnRange() (int, error) {
	v, err := d.readRegister(frame.IsPosOnRange)
	return int(v), err
}

// ReadGearNumber reads the electronic gear ratio as two 14-bit values.
func (d *Drive) ReadGearNumber() (num, den int, err error) {
	v, err := d.readRegister(frame.IsGearNumber)
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 14 & 0x3FFF), int(v & 0x3FFF), nil
}

// ReadStatusWord reads the raw drive status word.
func (d *Drive) ReadStatusWord() (byte, error) {
	v, err := d.readRegister(frame.IsStatus)
	return byte(v), err
}

// ReadStatus reads and decodes the drive status word.
func (d *Drive) ReadStatus() (Status, error) {
	w, err := d.ReadStatusWord()
	if err != nil {
		return Status{}, err
	}
	return DecodeStatus(w), nil
}

// ReadAlarm reads the active fault code.
func (d *Drive) ReadAlarm() (Alarm, error) {
	s, err := d.ReadStatus()
	return s.Alarm, err
}

// ReadConfigWord reads the raw drive configuration word.
func (d *Drive) ReadConfigWord() (byte, error) {
	v, err := d.readRegister(frame.IsConfig)
	return byte(v), err
}

// ReadConfig reads and decodes the drive configuration.
func (d *Drive) ReadConfig() (Config, error) {
	w, err := d.ReadConfigWord()
	if err != nil {
		return Config{}, err
	}
	return DecodeConfig(w), nil
}

// ReadAbsolutePosition reads the absolute encoder position in counts.
func (d *Drive) ReadAbsolutePosition() (int32, error) {
	return d.readRegister(frame.IsAbsPos32)
}

// ReadTorqueCurrent reads the instantaneous torque current in amps.
func (d *Drive) ReadTorqueCurrent() (float64, error) {
	raw, err := d.readRegister(frame.IsTrqCurrent)
	if err != nil {
		return 0, err
	}
	reg := registers[frame.IsTrqCurrent]
	return reg.Engineering(raw), nil
}

// MeasureSpeed samples the absolute position twice, integration apart,
// and returns the shaft speed in RPM. The sign follows the direction
// of rotation.
func (d *Drive) MeasureSpeed(integration time.Duration) (float64, error) {
	if integration <= 0 {
		return 0, fmt.Errorf("%w: integration %v", ErrValueRange, integration)
	}
	p1, err := d.ReadAbsolutePosition()
	if err != nil {
		return 0, err
	}
	time.Sleep(integration)
	p2, err := d.ReadAbsolutePosition()
	if err != nil {
		return 0, err
	}
	counts := float64(p2 - p1)
	return counts / integration.Seconds() * 60 / EncoderCountsPerRev, nil
}

// SetSpeed commands a constant speed in RPM (Turn_ConstSpeed). The
// command only takes effect when the drive is configured for RS232
// speed control; that configuration is not checked here. The drive
// sends no acknowledgment, so the call returns once the frame is on
// the wire.
func (d *Drive) SetSpeed(rpm int) error {
	raw, err := SpeedSetpoint.Raw(float64(rpm))
	if err != nil {
		return err
	}
	tx, err := frame.Encode(d.config.Address, frame.FnTurnConstSpeed,
		frame.PackValue(raw, SpeedSetpoint.Width))
	if err != nil {
		return err
	}
	if err := d.session.Send(tx); err != nil {
		return err
	}
	d.target = raw
	d.hasTarget = true
	return nil
}

// TargetSpeed returns the last setpoint sent with SetSpeed in this
// session. The drive has no readback register for the commanded
// speed, so this is host-side state; ok is false before the first
// SetSpeed.
func (d *Drive) TargetSpeed() (rpm int, ok bool) {
	return int(d.target), d.hasTarget
}

// SetConfig writes the drive configuration word (Set_Drive_Config).
func (d *Drive) SetConfig(c Config) error {
	return d.writeRegister(frame.IsConfig, int32(c.Word()))
}

// SetMainGain writes the servo main gain.
func (d *Drive) SetMainGain(v int) error {
	return d.writeChecked(frame.IsMainGain, v)
}

// SetSpeedGain writes the servo speed gain.
func (d *Drive) SetSpeedGain(v int) error {
	return d.writeChecked(frame.IsSpeedGain, v)
}

// SetIntGain writes the servo integration gain.
func (d *Drive) SetIntGain(v int) error {
	return d.writeChecked(frame.IsIntGain, v)
}

// SetTorqueConstant writes the torque filter constant.
func (d *Drive) SetTorqueConstant(v int) error {
	return d.writeChecked(frame.IsTrqCons, v)
}

// SetMaxSpeed writes the speed limit.
func (d *Drive) SetMaxSpeed(v int) error {
	return d.writeChecked(frame.IsHighSpeed, v)
}

// SetMaxAcceleration writes the acceleration limit.
func (d *Drive) SetMaxAcceleration(v int) error {
	return d.writeChecked(frame.IsHighAccel, v)
}

// SetPositionOnRange writes the in-position window, in encoder counts.
func (d *Drive) SetPositionOnRange(v int) error {
	return d.writeChecked(frame.IsPosOnRange, v)
}

// SetGearNumber writes the electronic gear ratio as two 14-bit values.
func (d *Drive) SetGearNumber(num, den int) error {
	if num < 0 || num > 0x3FFF || den < 0 || den > 0x3FFF {
		return fmt.Errorf("%w: gear number %d:%d", ErrValueRange, num, den)
	}
	return d.writeRegister(frame.IsGearNumber, int32(num)<<14|int32(den))
}

// SetOrigin declares the current position as the origin (Set_Origin).
func (d *Drive) SetOrigin() error {
	tx, err := frame.Encode(d.config.Address, frame.FnSetOrigin, []byte{0x00})
	if err != nil {
		return err
	}
	return d.session.Send(tx)
}

// writeChecked range-checks an engineering value against the register
// descriptor before writing.
func (d *Drive) writeChecked(id byte, v int) error {
	reg, err := RegisterByID(id)
	if err != nil {
		return err
	}
	raw, err := reg.Raw(float64(v))
	if err != nil {
		return err
	}
	return d.writeRegister(id, raw)
}
