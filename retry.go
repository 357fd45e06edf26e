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

import "time"

// RetryConfig configures the caller-side retry helper. The session
// itself never resends: each attempt is a fresh transaction.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// DefaultRetryConfig returns the default retry policy: three attempts,
// 50 ms apart.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       50 * time.Millisecond,
	}
}

// Retry runs op until it succeeds, fails with a non-retryable error,
// or exhausts the configured attempts. Timeouts and corrupt frames
// are retried; range errors and precondition violations are not (see
// IsRetryable).
func Retry[T any](config *RetryConfig, op func() (T, error)) (T, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var zero T
	var err error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 && config.Delay > 0 {
			time.Sleep(config.Delay)
		}
		var v T
		v, err = op()
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		debugf("retry %d/%d after: %v", attempt+1, config.MaxAttempts, err)
	}
	return zero, err
}
