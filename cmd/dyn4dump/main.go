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

// dyn4dump is a diagnostic tool: it connects to a DYN4 drive, dumps
// every readable register, and can optionally command a constant speed
// and measure the result.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	dyn4 "github.com/ZaparooProject/go-dyn4"
	"github.com/ZaparooProject/go-dyn4/detection"
	"github.com/ZaparooProject/go-dyn4/transport/uart"
)

type config struct {
	devicePath *string
	addr       *int
	timeout    *time.Duration
	speed      *int
	measure    *bool
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). Leave empty for auto-detection."),
		addr:    flag.Int("addr", 0, "Drive bus address (0-127)"),
		timeout: flag.Duration("timeout", 500*time.Millisecond, "Response timeout per transaction"),
		speed:   flag.Int("speed", 0, "RPM setpoint to command after the dump (0 = no speed command)"),
		measure: flag.Bool("measure", false, "Measure shaft speed from position samples"),
		debug:   flag.Bool("debug", false, "Enable wire-level debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		dyn4.SetDebugEnabled(true)
	}
	return cfg
}

// findDevice auto-detects a serial port when none was given.
func findDevice(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	ports, err := detection.Ports(nil)
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no candidate serial ports found, use -device")
	}
	if len(ports) > 1 {
		fmt.Fprintln(os.Stderr, "multiple candidate ports:")
		for _, p := range ports {
			fmt.Fprintf(os.Stderr, "  %s  %s %s\n", p.Path, p.VIDPID, p.Product)
		}
	}
	return ports[0].Path, nil
}

func dump(drive *dyn4.Drive) error {
	retry := dyn4.DefaultRetryConfig()

	for _, row := range []struct {
		name string
		read func() (int, error)
	}{
		{"main gain", drive.ReadMainGain},
		{"speed gain", drive.ReadSpeedGain},
		{"integration gain", drive.ReadIntGain},
		{"torque constant", drive.ReadTorqueConstant},
		{"max speed", drive.ReadMaxSpeed},
		{"max acceleration", drive.ReadMaxAcceleration},
		{"drive id", drive.ReadDriveID},
		{"position on-range", drive.ReadPositionOnRange},
	} {
		v, err := dyn4.Retry(retry, row.read)
		if err != nil {
			return fmt.Errorf("read %s: %w", row.name, err)
		}
		fmt.Printf("%-18s %d\n", row.name, v)
	}

	num, den, err := drive.ReadGearNumber()
	if err != nil {
		return fmt.Errorf("read gear number: %w", err)
	}
	fmt.Printf("%-18s %d:%d\n", "gear number", num, den)

	status, err := dyn4.Retry(retry, drive.ReadStatus)
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	fmt.Printf("%-18s %s\n", "status", status)

	conf, err := dyn4.Retry(retry, drive.ReadConfig)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Printf("%-18s %s\n", "config", conf)

	pos, err := dyn4.Retry(retry, drive.ReadAbsolutePosition)
	if err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	fmt.Printf("%-18s %d counts\n", "absolute position", pos)

	current, err := dyn4.Retry(retry, drive.ReadTorqueCurrent)
	if err != nil {
		return fmt.Errorf("read torque current: %w", err)
	}
	fmt.Printf("%-18s %.2f A\n", "torque current", current)

	return nil
}

func run() error {
	cfg := parseFlags()

	path, err := findDevice(*cfg.devicePath)
	if err != nil {
		return err
	}

	port, err := uart.New(path)
	if err != nil {
		return err
	}

	drive, err := dyn4.New(port,
		dyn4.WithAddress(byte(*cfg.addr)),
		dyn4.WithTimeout(*cfg.timeout),
	)
	if err != nil {
		_ = port.Close()
		return err
	}
	defer func() { _ = drive.Close() }()

	fmt.Printf("drive %d on %s\n", drive.Address(), path)
	if err := dump(drive); err != nil {
		return err
	}

	if *cfg.speed != 0 {
		if err := drive.SetSpeed(*cfg.speed); err != nil {
			return fmt.Errorf("set speed: %w", err)
		}
		fmt.Printf("commanded %d rpm\n", *cfg.speed)
		time.Sleep(500 * time.Millisecond)
	}

	if *cfg.measure {
		rpm, err := drive.MeasureSpeed(100 * time.Millisecond)
		if err != nil {
			return fmt.Errorf("measure speed: %w", err)
		}
		fmt.Printf("measured %.1f rpm\n", rpm)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
