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

package uart

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterCandidatePorts(t *testing.T) {
	t.Parallel()

	var ports, want []string
	switch runtime.GOOS {
	case "darwin":
		ports = []string{
			"/dev/cu.usbserial-1420",
			"/dev/tty.usbserial-1420",
			"/dev/cu.Bluetooth-Incoming-Port",
			"/dev/cu.debug-console",
		}
		want = []string{"/dev/cu.usbserial-1420"}
	case "windows":
		ports = []string{"COM1", "COM3", "COM7"}
		want = []string{"COM3", "COM7"}
	default:
		ports = []string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyACM1"}
		want = []string{"/dev/ttyUSB0", "/dev/ttyACM1"}
	}

	assert.Equal(t, want, filterCandidatePorts(ports))
}

func TestFilterCandidatePortsEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, filterCandidatePorts(nil))
}
