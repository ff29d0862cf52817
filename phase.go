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

// Phase is the protocol phase of an upload session. Phases only move
// forward; the sole way back is a fresh session started by the orchestrator
// after a handshake timeout.
type Phase int

// Session phases in order.
const (
	PhaseIdle Phase = iota
	PhaseAwaitingHandshake
	PhaseBaudNegotiated
	PhaseErasing
	PhaseTransferring
	PhaseVerifying
	PhaseComplete
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingHandshake:
		return "awaiting handshake"
	case PhaseBaudNegotiated:
		return "baud negotiated"
	case PhaseErasing:
		return "erasing"
	case PhaseTransferring:
		return "transferring"
	case PhaseVerifying:
		return "verifying"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Mode selects what kind of image the session programs.
type Mode int

const (
	// ModeFirmware uploads an application image.
	ModeFirmware Mode = iota
	// ModeBootloader updates the bootloader itself; the session erases all
	// of flash before transferring.
	ModeBootloader
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFirmware:
		return "firmware"
	case ModeBootloader:
		return "bootloader"
	default:
		return "unknown"
	}
}

// ProgressEvent is emitted after every acknowledged chunk. Values are never
// mutated after construction.
type ProgressEvent struct {
	Message string
	Phase   Phase
	Bytes   int
	Total   int
}

// SupportedBauds lists the transfer rates the SVL bootloader can negotiate.
var SupportedBauds = []int{57600, 115200, 230400, 460800, 921600}

// SupportedBaud reports whether the bootloader can negotiate the rate.
func SupportedBaud(baud int) bool {
	for _, b := range SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}

// DefaultFlashCapacity is the flash available to an uploaded image on
// Apollo3-class targets: 1 MB minus the region reserved for the bootloader.
const DefaultFlashCapacity = 0xF0000
