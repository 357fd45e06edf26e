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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-dyn4/internal/frame"
)

// Frame codec errors, re-exported so callers can match them with
// errors.Is without reaching into internal packages.
var (
	// ErrFrameMalformed indicates a response frame that is structurally
	// invalid: too short, missing its start byte, or with a declared
	// length that disagrees with the bytes read.
	ErrFrameMalformed = frame.ErrMalformed

	// ErrChecksumMismatch indicates a response whose trailing check
	// byte does not match the frame contents.
	ErrChecksumMismatch = frame.ErrChecksumMismatch
)

// Session and client errors.
var (
	// ErrTimeout indicates no complete response frame arrived within
	// the configured window. The session discards any partial bytes and
	// remains usable.
	ErrTimeout = errors.New("response timeout")

	// ErrBusy indicates a request was issued while another transaction
	// on the same session was still in flight. This is a caller bug:
	// a session carries exactly one outstanding request at a time.
	ErrBusy = errors.New("session busy with outstanding request")

	// ErrPortClosed indicates the serial channel has been closed.
	ErrPortClosed = errors.New("port closed")

	// ErrShortWrite indicates the serial layer accepted fewer bytes
	// than the full request frame.
	ErrShortWrite = errors.New("short frame write")

	// ErrUnexpectedResponse indicates the drive kept answering with a
	// different function ID than the one requested, even after the
	// configured number of re-reads.
	ErrUnexpectedResponse = errors.New("unexpected response function")

	// ErrUnknownRegister indicates a register ID outside the documented
	// DYN4 read set.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrValueRange indicates an engineering value that maps outside
	// the raw range representable by the register's byte width.
	ErrValueRange = errors.New("value out of register range")

	// ErrReadOnly indicates a write to a register the drive only
	// reports, never accepts.
	ErrReadOnly = errors.New("register is read-only")
)

// ErrorType classifies transport errors for retry decisions.
type ErrorType int

const (
	// ErrorTypeTransient marks failures worth retrying in a fresh
	// transaction: noise, collisions, slow responses.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent marks failures retrying cannot fix: closed
	// ports, invalid parameters, programming errors.
	ErrorTypePermanent
	// ErrorTypeTimeout marks deadline expiries.
	ErrorTypeTimeout
)

// String returns a human-readable name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("errortype(%d)", int(t))
	}
}

// TransportError wraps a serial layer failure with enough context for
// a control loop to decide between retrying and giving up.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("dyn4 %s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("dyn4 %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with the given
// classification. Transient and timeout errors are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a timeout-classified TransportError wrapping
// ErrTimeout.
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrTimeout,
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// IsRetryable reports whether the failure is worth a fresh transaction.
// Corrupt frames and timeouts are retryable; range errors, unknown
// registers and precondition violations are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrFrameMalformed),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrUnexpectedResponse),
		errors.Is(err, ErrShortWrite):
		return true
	default:
		return false
	}
}

// GetErrorType classifies an arbitrary error for retry policy.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case IsRetryable(err):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
