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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	svl "github.com/apollotools/go-svl"
	"github.com/apollotools/go-svl/uploader"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	chunkSize   int
	maxAttempts int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <image.bin>",
	Short: "Upload a firmware image to the board",
	Long: `Upload a firmware binary to the application region of the board's
flash. The image is streamed in acknowledged chunks; each chunk is resent
on request or on a missed acknowledgment before the upload gives up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), args[0], svl.ModeFirmware)
	},
}

func init() {
	uploadCmd.Flags().IntVar(&chunkSize, "chunk-size", 512, "Transfer chunk size in bytes")
	uploadCmd.Flags().IntVar(&maxAttempts, "attempts", 3, "Upload attempts when the board misses the reset window")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(ctx context.Context, imagePath string, mode svl.Mode) error {
	if portName == "" {
		return errors.New("no serial port given, use --port (see: svlflash ports)")
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	fmt.Printf("Image size: %d (0x%X) bytes\n", len(image), len(image))

	u, err := uploader.New(
		uploader.WithMaxAttempts(maxAttempts),
		uploader.WithSessionOptions(svl.WithChunkSize(chunkSize)),
	)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(image),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowBytes(true),
	)

	events := u.Upload(ctx, uploader.Request{
		Image: image,
		Port:  portName,
		Baud:  baudRate,
		Mode:  mode,
	})

	var result *uploader.Result
	for ev := range events {
		switch {
		case ev.Progress != nil:
			_ = bar.Set(ev.Progress.Bytes)
		case ev.Result != nil:
			result = ev.Result
		}
	}

	if !result.Success() {
		fmt.Println()
		if result.Attempts > 1 {
			fmt.Printf("Upload failed after %d attempts in phase %q\n", result.Attempts, result.Phase)
		}
		return result.Err
	}

	_ = bar.Finish()
	fmt.Printf("\nUpload complete: %d bytes in %s (%.0f B/s), bootloader v%d\n",
		result.BytesSent, result.Duration.Round(time.Millisecond), result.Throughput(),
		result.BootloaderVersion)
	return nil
}
