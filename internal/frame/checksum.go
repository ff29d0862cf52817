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

package frame

// Checksum is the integrity strategy appended to every frame. The deployed
// SVL bootloader uses CRC-16; the interface exists so that alternate target
// firmware builds can be supported without touching the codec or callers.
type Checksum interface {
	// Size returns the number of checksum bytes appended to a frame.
	Size() int
	// Sum computes the checksum over body (command byte plus payload).
	Sum(body []byte) []byte
	// Verify reports whether sum matches the checksum of body.
	Verify(body, sum []byte) bool
}

// crcTable is the CRC-16 table for polynomial 0x8005, MSB-first, as burned
// into the SVL bootloader.
var crcTable [256]uint16

func init() {
	for i := range crcTable {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}

// CRC16 is the SVL bootloader checksum: CRC-16, polynomial 0x8005,
// MSB-first, initial value 0x0000.
type CRC16 struct{}

// Size returns 2.
func (CRC16) Size() int { return 2 }

// Sum computes the CRC over body, big-endian.
func (CRC16) Sum(body []byte) []byte {
	crc := crc16(body)
	return []byte{byte(crc >> 8), byte(crc)}
}

// Verify checks the trailing CRC. CRC over body plus a correct checksum
// is zero, which is how the target validates frames.
func (CRC16) Verify(body, sum []byte) bool {
	if len(sum) != 2 {
		return false
	}
	return crc16(append(append([]byte{}, body...), sum...)) == 0
}

// XOR8 is a single-byte XOR checksum used by experimental target firmware
// builds that cannot afford the CRC table.
type XOR8 struct{}

// Size returns 1.
func (XOR8) Size() int { return 1 }

// Sum XORs every byte of body.
func (XOR8) Sum(body []byte) []byte {
	var x byte
	for _, b := range body {
		x ^= b
	}
	return []byte{x}
}

// Verify checks the trailing XOR byte.
func (XOR8) Verify(body, sum []byte) bool {
	if len(sum) != 1 {
		return false
	}
	var x byte
	for _, b := range body {
		x ^= b
	}
	return x == sum[0]
}
