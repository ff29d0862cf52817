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

package main

import (
	"fmt"

	"github.com/apollotools/go-svl/transport/uart"
	"github.com/spf13/cobra"
)

var allPorts bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports that look like upload targets",
	RunE: func(_ *cobra.Command, _ []string) error {
		list := uart.ListCandidatePorts
		if allPorts {
			list = uart.ListPorts
		}

		ports, err := list()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	},
}

func init() {
	portsCmd.Flags().BoolVarP(&allPorts, "all", "a", false, "List every serial port, unfiltered")
	rootCmd.AddCommand(portsCmd)
}
