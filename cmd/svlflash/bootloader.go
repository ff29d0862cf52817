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

var burnBootloaderCmd = &cobra.Command{
	Use:   "burn-bootloader <bootloader.bin>",
	Short: "Replace the bootloader on the board",
	Long: `Replace the SVL bootloader itself. All of flash is erased before
the new image is written, so an interrupted run leaves the board without
a working bootloader and recoverable only over JTAG/SWD. Do not unplug
the board while this runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), args[0], svl.ModeBootloader)
	},
}

func init() {
	burnBootloaderCmd.Flags().IntVar(&chunkSize, "chunk-size", 512, "Transfer chunk size in bytes")
	burnBootloaderCmd.Flags().IntVar(&maxAttempts, "attempts", 3, "Upload attempts when the board misses the reset window")
	rootCmd.AddCommand(burnBootloaderCmd)
}
