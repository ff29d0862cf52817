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

// Package frame provides the SVL wire codec: frame encoding, a resumable
// decoder, checksum strategies and the versioned protocol constant tables.
package frame

import "fmt"

// Protocol holds the command bytes and framing parameters for one revision
// of the SVL bootloader firmware. Command values are not hard-coded at call
// sites so that a new bootloader revision only needs a new table here.
type Protocol struct {
	Checksum Checksum

	// HandshakeProbe is written raw (unframed) while the bootloader is
	// auto-detecting the host baud rate.
	HandshakeProbe []byte

	Version int

	// MaxPayload bounds the data carried by a single frame. It also caps
	// the transfer chunk size.
	MaxPayload int

	CmdVersion  byte // target -> host, carries bootloader version
	CmdBootload byte // host -> target, lock the target into bootload mode
	CmdNext     byte // target -> host, chunk acknowledged, send the next one
	CmdFrame    byte // host -> target, one chunk of image data
	CmdRetry    byte // target -> host, resend the previous chunk
	CmdDone     byte // host -> target finalize; response carries status
	CmdSetBaud  byte // host -> target, switch transfer baud rate
	CmdErase    byte // host -> target, erase all; response carries status
}

// V1 returns the constant table for SVL protocol revision 1, the revision
// shipped on Artemis modules.
func V1() *Protocol {
	return &Protocol{
		Version:        1,
		CmdVersion:     0x01,
		CmdBootload:    0x02,
		CmdNext:        0x03,
		CmdFrame:       0x04,
		CmdRetry:       0x05,
		CmdDone:        0x06,
		CmdSetBaud:     0x07,
		CmdErase:       0x08,
		HandshakeProbe: []byte{0x55}, // 'U', alternating bit pattern for baud detection
		MaxPayload:     2048,
		Checksum:       CRC16{},
	}
}

// ForVersion returns the protocol table for the given revision.
func ForVersion(version int) (*Protocol, error) {
	switch version {
	case 1:
		return V1(), nil
	default:
		return nil, fmt.Errorf("%w: revision %d", ErrUnknownVersion, version)
	}
}
