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
	svl "github.com/apollotools/go-svl"
	"github.com/spf13/cobra"
)

var (
	portName string
	baudRate int
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "svlflash",
	Short: "SparkFun Artemis SVL bootloader uploader",
	Long: `svlflash - programs SparkFun Artemis / Apollo3 boards over the SVL
serial bootloader.

The board is reset over the serial control lines, caught in its bootloader
window, and programmed in acknowledged chunks at the negotiated rate. If
the board sleeps through the reset window the whole exchange is retried
automatically.

Find the board first:
  svlflash ports

Then upload:
  svlflash upload firmware.bin --port /dev/ttyUSB0 --baud 921600`,
	Version: "1.0.0",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		svl.SetDebugEnabled(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (e.g. /dev/ttyUSB0 or COM3)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Transfer baud rate")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
}
