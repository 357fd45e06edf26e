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
	"context"
	"fmt"
	"time"
)

// runWithContext runs a blocking drive operation in a goroutine and
// races it against ctx. When ctx wins, the operation keeps running to
// completion in the background and the session stays busy until it
// does; the serial exchange itself is still bounded by the session
// timeout.
func runWithContext[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("context cancelled before request: %w", ctx.Err())
	default:
	}

	type result struct {
		err error
		v   T
	}
	ch := make(chan result, 1)
	go func() {
		v, err := op()
		ch <- result{err, v}
	}()

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("context cancelled awaiting response: %w", ctx.Err())
	case r := <-ch:
		return r.v, r.err
	}
}

// ReadStatusContext is ReadStatus bounded by ctx.
func (d *Drive) ReadStatusContext(ctx context.Context) (Status, error) {
	return runWithContext(ctx, d.ReadStatus)
}

// ReadConfigContext is ReadConfig bounded by ctx.
func (d *Drive) ReadConfigContext(ctx context.Context) (Config, error) {
	return runWithContext(ctx, d.ReadConfig)
}

// ReadAbsolutePositionContext is ReadAbsolutePosition bounded by ctx.
func (d *Drive) ReadAbsolutePositionContext(ctx context.Context) (int32, error) {
	return runWithContext(ctx, d.ReadAbsolutePosition)
}

// ReadTorqueCurrentContext is ReadTorqueCurrent bounded by ctx.
func (d *Drive) ReadTorqueCurrentContext(ctx context.Context) (float64, error) {
	return runWithContext(ctx, d.ReadTorqueCurrent)
}

// MeasureSpeedContext is MeasureSpeed bounded by ctx.
func (d *Drive) MeasureSpeedContext(ctx context.Context, integration time.Duration) (float64, error) {
	return runWithContext(ctx, func() (float64, error) {
		return d.MeasureSpeed(integration)
	})
}

// SetSpeedContext is SetSpeed bounded by ctx.
func (d *Drive) SetSpeedContext(ctx context.Context, rpm int) error {
	_, err := runWithContext(ctx, func() (struct{}, error) {
		return struct{}{}, d.SetSpeed(rpm)
	})
	return err
}
