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

import "fmt"

// Alarm is the drive fault code carried in bits 2-4 of the status
// word.
type Alarm uint8

// Alarm codes.
const (
	AlarmNone          Alarm = 0
	AlarmLostPhase     Alarm = 1 // |Pset - Pmotor| > 8192 counts (180 deg)
	AlarmOverCurrent   Alarm = 2
	AlarmOverHeatPower Alarm = 3 // overheat or over power
	AlarmBadCommand    Alarm = 4 // drive rejected a command with a bad check byte
)

// String returns a short human-readable alarm name.
func (a Alarm) String() string {
	switch a {
	case AlarmNone:
		return "none"
	case AlarmLostPhase:
		return "lost phase"
	case AlarmOverCurrent:
		return "over current"
	case AlarmOverHeatPower:
		return "overheat or over power"
	case AlarmBadCommand:
		return "corrupt command"
	default:
		return fmt.Sprintf("alarm(%d)", uint8(a))
	}
}

// Status is the decoded drive status word (Is_Status response).
type Status struct {
	// InPosition is set when |Pset - Pmotor| <= the on-range window.
	InPosition bool
	// MotorFree is set when the drive has released the motor; clear
	// means the motor is under servo control.
	MotorFree bool
	// Alarm is the active fault code, AlarmNone when healthy.
	Alarm Alarm
	// MotionBusy is set while a built-in S-curve, linear or circular
	// motion is still executing.
	MotionBusy bool
	// Pin2 reflects the JP3 pin 2 input, used by hosts to detect a
	// machine zero position.
	Pin2 bool
}

// DecodeStatus unpacks a raw status word.
func DecodeStatus(word byte) Status {
	return Status{
		InPosition: word&(1<<0) == 0,
		MotorFree:  word&(1<<1) != 0,
		Alarm:      Alarm(word >> 2 & 0x7),
		MotionBusy: word&(1<<5) != 0,
		Pin2:       word&(1<<6) != 0,
	}
}

// String renders the status in a compact single-line form.
func (s Status) String() string {
	motor := "servo"
	if s.MotorFree {
		motor = "free"
	}
	motion := "completed"
	if s.MotionBusy {
		motion = "busy"
	}
	pin2 := 0
	if s.Pin2 {
		pin2 = 1
	}
	return fmt.Sprintf("in-position=%t motor=%s alarm=%s motion=%s pin2=%d",
		s.InPosition, motor, s.Alarm, motion, pin2)
}

// InputMode selects the drive's command source.
type InputMode uint8

// Input modes (config word bits 0-1).
const (
	InputRS232 InputMode = iota
	InputCWCCW
	InputPulseDir
	InputAnalog
)

// String returns a short human-readable mode name.
func (m InputMode) String() string {
	switch m {
	case InputRS232:
		return "rs232"
	case InputCWCCW:
		return "cw/ccw"
	case InputPulseDir:
		return "pulse/dir"
	case InputAnalog:
		return "analog"
	default:
		return fmt.Sprintf("inputmode(%d)", uint8(m))
	}
}

// ServoMode selects what quantity the drive regulates.
type ServoMode uint8

// Servo modes (config word bits 3-4).
const (
	ServoPosition ServoMode = iota
	ServoSpeed
	ServoTorque
)

// String returns a short human-readable mode name.
func (m ServoMode) String() string {
	switch m {
	case ServoPosition:
		return "position"
	case ServoSpeed:
		return "speed"
	case ServoTorque:
		return "torque"
	default:
		return fmt.Sprintf("servomode(%d)", uint8(m))
	}
}

// Config is the decoded drive configuration word (Is_Config response)
// and the operand of Set_Drive_Config.
type Config struct {
	// Input selects the command source. Serial speed control requires
	// InputRS232 with ServoSpeed.
	Input InputMode
	// Absolute makes the drive work as an absolute position system,
	// returning to absolute zero after power-on reset.
	Absolute bool
	// Servo selects the regulated quantity.
	Servo ServoMode
	// Enabled is set when the drive servos the motor; clear leaves the
	// motor free to turn.
	Enabled bool
	// Reserved carries bit 6, undocumented in the drive manual. It is
	// kept so a read-modify-write cycle does not clear it.
	Reserved bool
}

// DecodeConfig unpacks a raw config word.
func DecodeConfig(word byte) Config {
	return Config{
		Input:    InputMode(word & 0x3),
		Absolute: word&(1<<2) != 0,
		Servo:    ServoMode(word >> 3 & 0x3),
		Enabled:  word&(1<<5) != 0,
		Reserved: word&(1<<6) != 0,
	}
}

// Word re-encodes the configuration for Set_Drive_Config.
func (c Config) Word() byte {
	w := byte(c.Input)&0x3 | (byte(c.Servo)&0x3)<<3
	if c.Absolute {
		w |= 1 << 2
	}
	if c.Enabled {
		w |= 1 << 5
	}
	if c.Reserved {
		w |= 1 << 6
	}
	return w
}

// String renders the configuration in a compact single-line form.
func (c Config) String() string {
	pos := "relative"
	if c.Absolute {
		pos = "absolute"
	}
	return fmt.Sprintf("input=%s positioning=%s servo=%s enabled=%t",
		c.Input, pos, c.Servo, c.Enabled)
}
