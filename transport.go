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

import "time"

// Transport abstracts the bidirectional byte stream to the target. The only
// production implementation is transport/uart over a USB-serial link; tests
// use mock implementations.
//
// Every blocking operation is bounded: Read returns after at most the
// configured read timeout, possibly with zero bytes. No Transport method may
// block indefinitely.
type Transport interface {
	// Read fills p with available bytes. A return of (0, nil) means the
	// read timeout elapsed with nothing received.
	Read(p []byte) (int, error)

	// Write sends p in full or fails.
	Write(p []byte) (int, error)

	// SetBaudRate re-configures the link speed without closing the port.
	SetBaudRate(baud int) error

	// SetReadTimeout bounds every subsequent Read call.
	SetReadTimeout(timeout time.Duration) error

	// ToggleReset pulses the control lines (DTR/RTS) to hardware-reset the
	// target into its bootloader window.
	ToggleReset() error

	// ResetInput discards any unread bytes, including the startup blip the
	// target emits when it comes out of reset.
	ResetInput() error

	// Close releases the port.
	Close() error

	// IsConnected returns true if the transport is usable.
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
