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

package uploader

import (
	"time"

	svl "github.com/apollotools/go-svl"
)

// Request describes one user-initiated upload. The image bytes are owned
// by the upload for its duration and must not be mutated by the caller.
type Request struct {
	// Image is the raw firmware or bootloader binary.
	Image []byte

	// Port is the serial port identifier, e.g. /dev/ttyUSB0 or COM3.
	Port string

	// Baud is the requested transfer rate. It must be one of
	// svl.SupportedBauds.
	Baud int

	// Mode selects firmware upload or bootloader update.
	Mode svl.Mode
}

// Event is one message on the upload's event channel. Exactly one of the
// fields is set: Progress for per-chunk updates, Result for the terminal
// outcome. The Result event is always the last one before the channel
// closes.
type Event struct {
	Progress *svl.ProgressEvent
	Result   *Result
}

// Result is the terminal outcome of an upload.
type Result struct {
	// Err is nil on success. On failure it is one of the svl error kinds,
	// distinguishable with errors.Is / errors.As.
	Err error

	// Phase is svl.PhaseComplete on success, otherwise the phase the
	// session was in when it failed.
	Phase svl.Phase

	// BytesSent counts acknowledged image bytes of the last attempt.
	BytesSent int

	// BootloaderVersion is the version the target reported during the
	// handshake, zero if the handshake never completed.
	BootloaderVersion int

	// Attempts is how many sessions were run, counting handshake-timeout
	// retries.
	Attempts int

	// Duration covers the whole upload including retries.
	Duration time.Duration
}

// Success reports whether the upload completed.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Throughput returns the nominal transfer rate in bytes per second, the
// figure the uploader has always reported after a successful bootload.
func (r *Result) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.BytesSent) / r.Duration.Seconds()
}
