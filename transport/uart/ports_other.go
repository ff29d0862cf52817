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

//go:build !darwin && !windows

package uart

import "strings"

// filterCandidatePorts keeps USB-serial devices. Artemis boards enumerate
// as ttyUSB (CH340/FTDI bridges) or ttyACM (native USB CDC); the numbered
// /dev/ttyS* motherboard UARTs are never upload targets.
func filterCandidatePorts(ports []string) []string {
	var candidates []string
	for _, port := range ports {
		if strings.HasPrefix(port, "/dev/ttyUSB") || strings.HasPrefix(port, "/dev/ttyACM") {
			candidates = append(candidates, port)
		}
	}
	return candidates
}
