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

// ListCandidatePorts returns the serial ports worth offering as upload
// targets. Ports that are never an Artemis board (Bluetooth endpoints,
// on-board consoles) are filtered out per platform; when the filter would
// leave nothing, the full list is returned so an unusual setup still works.
func ListCandidatePorts() ([]string, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}

	candidates := filterCandidatePorts(ports)
	if len(candidates) == 0 {
		return ports, nil
	}
	return candidates, nil
}
