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

/*
Package svl is a pure Go host implementation of the SparkFun Variable
Loader (SVL) serial bootloader protocol, used to program Artemis /
Apollo3-class boards over a USB serial link.

The bootloader only listens for a short window after reset, so an upload
is a tightly sequenced exchange: reset the board, catch the handshake at
a fixed low rate, negotiate the transfer rate, stream the image in
acknowledged chunks, and read back the verification status. A Session
drives that sequence over any Transport; the uploader package adds the
orchestration a tool needs on top (port lifecycle, whole-session retries
when the board misses the reset window, a progress event stream).

Features:
  - Framed wire codec with CRC-16 checksums
  - Transport abstraction with a production UART implementation
  - Firmware upload and whole-flash bootloader update modes
  - Automatic session retry on a missed reset window
  - Per-chunk resend handling with bounded retries
  - Progress reporting per acknowledged chunk

Basic Usage:

	import (
	    svl "github.com/apollotools/go-svl"
	    "github.com/apollotools/go-svl/transport/uart"
	)

	transport, err := uart.Open("/dev/ttyUSB0", 115200)
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	sess, err := svl.NewSession(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := sess.Run(ctx, image, svl.ModeFirmware, 921600); err != nil {
	    log.Fatal(err)
	}

Most programs should use the uploader package instead of driving a
Session directly; it owns the port, applies the retry policy and
delivers progress over a channel.
*/
package svl
