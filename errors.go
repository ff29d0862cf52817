// go-svl
// Copyright (c) 2025 The go-svl Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-svl.
//
// go-svl is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-svl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-svl; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package svl

import (
	"errors"
	"fmt"
)

// Device errors: the serial port itself could not be used.
var (
	ErrDeviceNotFound = errors.New("serial port not found")
	ErrPortPermission = errors.New("permission denied opening serial port")
	ErrPortBusy       = errors.New("serial port already in use")
)

// Transport errors: the link exists but an I/O operation failed.
var (
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport operation timed out")
)

// Protocol errors: the target did not follow the exchange.
var (
	ErrHandshakeTimeout  = errors.New("bootloader did not answer the handshake")
	ErrNegotiationFailed = errors.New("baud rate negotiation failed")
	ErrChecksumMismatch  = errors.New("frame checksum mismatch")
	ErrUnexpectedFrame   = errors.New("unexpected frame from target")
)

// Transfer errors: the programming sequence failed.
var (
	ErrTransferFailed = errors.New("image transfer failed")
	ErrEraseFailed    = errors.New("flash erase failed")
	ErrVerifyFailed   = errors.New("image verification failed")
)

// User errors: the request itself was invalid.
var (
	ErrImageTooLarge   = errors.New("image exceeds target flash capacity")
	ErrEmptyImage      = errors.New("image is empty")
	ErrInvalidPort     = errors.New("invalid serial port identifier")
	ErrInvalidBaudRate = errors.New("baud rate not supported by the bootloader")
)

// ErrCancelled reports that the caller aborted the upload.
var ErrCancelled = errors.New("upload cancelled")

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that won't be resolved by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may be resolved by retrying
	ErrorTypeTransient
	// ErrorTypeTimeout indicates a timeout error
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with context about the
// operation and port involved.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError with retryability derived
// from the error type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a TransportError for a timed out operation.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// TransferError reports a chunk that could not be delivered after the
// per-chunk retry bound was exhausted. Offset is the byte position of the
// failed chunk within the image.
type TransferError struct {
	Err    error
	Offset int
}

// Error implements the error interface
func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is matches TransferError against ErrTransferFailed.
func (*TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

// VerifyError reports a non-success status code in the target's completion
// frame after the final chunk.
type VerifyError struct {
	Code byte
}

// Error implements the error interface
func (e *VerifyError) Error() string {
	return fmt.Sprintf("target reported verification status 0x%02X", e.Code)
}

// Is matches VerifyError against ErrVerifyFailed.
func (*VerifyError) Is(target error) bool {
	return target == ErrVerifyFailed
}

// IsRetryable returns true if the error may be resolved by retrying
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrHandshakeTimeout):
		return true
	default:
		return false
	}
}

// GetErrorType classifies an error for retry decisions
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout), errors.Is(err, ErrHandshakeTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrChecksumMismatch):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
