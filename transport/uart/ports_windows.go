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

//go:build windows

package uart

import "strings"

// filterCandidatePorts keeps COM ports. COM1 is skipped when other ports
// exist: it is almost always a motherboard UART, not a USB-serial bridge.
func filterCandidatePorts(ports []string) []string {
	var candidates []string
	for _, port := range ports {
		if !strings.HasPrefix(strings.ToUpper(port), "COM") {
			continue
		}
		candidates = append(candidates, port)
	}
	if len(candidates) > 1 {
		trimmed := candidates[:0]
		for _, port := range candidates {
			if strings.EqualFold(port, "COM1") {
				continue
			}
			trimmed = append(trimmed, port)
		}
		candidates = trimmed
	}
	return candidates
}
