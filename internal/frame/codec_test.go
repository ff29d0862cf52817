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

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	proto := V1()
	sizes := []int{0, 1, 2, 255, 511, 512, 2047, 2048}

	for _, size := range sizes {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		encoded, err := Encode(proto, proto.CmdFrame, payload)
		if err != nil {
			t.Fatalf("Encode(payload len %d) error: %v", size, err)
		}

		d := NewDecoder(proto)
		d.Feed(encoded)
		f, err := d.Next()
		if err != nil {
			t.Fatalf("Next(payload len %d) error: %v", size, err)
		}
		if f == nil {
			t.Fatalf("Next(payload len %d) = nil, want frame", size)
		}
		if f.Cmd != proto.CmdFrame {
			t.Errorf("Cmd = 0x%02X, want 0x%02X", f.Cmd, proto.CmdFrame)
		}
		if !bytes.Equal(f.Payload, payload) {
			t.Errorf("payload mismatch for size %d", size)
		}
		if d.Buffered() != 0 {
			t.Errorf("decoder holds %d leftover bytes after size %d", d.Buffered(), size)
		}
	}
}

func TestEncodePayloadTooBig(t *testing.T) {
	t.Parallel()

	proto := V1()
	_, err := Encode(proto, proto.CmdFrame, make([]byte, proto.MaxPayload+1))
	if !errors.Is(err, ErrPayloadTooBig) {
		t.Errorf("Encode() error = %v, want ErrPayloadTooBig", err)
	}
}

// TestDecodeSingleByteCorruption verifies that flipping any one byte of an
// encoded frame is caught: either the checksum fails or, if the length
// prefix was hit, the frame never validates as-is.
func TestDecodeSingleByteCorruption(t *testing.T) {
	t.Parallel()

	proto := V1()
	encoded, err := Encode(proto, proto.CmdFrame, []byte{0x10, 0x20, 0x30, 0x40})
	if err != nil {
		t.Fatal(err)
	}

	for i := range encoded {
		mutated := append([]byte(nil), encoded...)
		mutated[i] ^= 0x01

		d := NewDecoder(proto)
		d.Feed(mutated)
		f, err := d.Next()
		if f != nil {
			t.Errorf("byte %d: corrupted frame decoded successfully", i)
			continue
		}
		// Acceptable outcomes: checksum error, framing error, or an
		// incomplete frame (length prefix grew past the data we fed).
		if err != nil && !errors.Is(err, ErrChecksum) && !errors.Is(err, ErrFraming) {
			t.Errorf("byte %d: unexpected error %v", i, err)
		}
	}
}

// TestDecodeResumable splits one encoded frame at every byte boundary across
// two Feed calls and checks the result matches feeding it whole.
func TestDecodeResumable(t *testing.T) {
	t.Parallel()

	proto := V1()
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	encoded, err := Encode(proto, proto.CmdVersion, payload)
	if err != nil {
		t.Fatal(err)
	}

	for split := 0; split <= len(encoded); split++ {
		d := NewDecoder(proto)

		d.Feed(encoded[:split])
		f, err := d.Next()
		if err != nil {
			t.Fatalf("split %d: first Next() error: %v", split, err)
		}
		if f == nil {
			d.Feed(encoded[split:])
			f, err = d.Next()
			if err != nil {
				t.Fatalf("split %d: second Next() error: %v", split, err)
			}
		} else if split < len(encoded) {
			t.Fatalf("split %d: frame completed before all bytes fed", split)
		}

		if f == nil {
			t.Fatalf("split %d: no frame decoded", split)
		}
		if f.Cmd != proto.CmdVersion || !bytes.Equal(f.Payload, payload) {
			t.Errorf("split %d: decoded frame mismatch", split)
		}
	}
}

func TestDecodeBackToBackFrames(t *testing.T) {
	t.Parallel()

	proto := V1()
	first, _ := Encode(proto, proto.CmdNext, nil)
	second, _ := Encode(proto, proto.CmdRetry, nil)

	d := NewDecoder(proto)
	d.Feed(append(append([]byte(nil), first...), second...))

	f, err := d.Next()
	if err != nil || f == nil || f.Cmd != proto.CmdNext {
		t.Fatalf("first frame = %v, %v; want CmdNext", f, err)
	}
	f, err = d.Next()
	if err != nil || f == nil || f.Cmd != proto.CmdRetry {
		t.Fatalf("second frame = %v, %v; want CmdRetry", f, err)
	}
	f, err = d.Next()
	if f != nil || err != nil {
		t.Fatalf("third Next() = %v, %v; want nil, nil", f, err)
	}
}

func TestDecodeFramingError(t *testing.T) {
	t.Parallel()

	proto := V1()
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "length below minimum",
			data: []byte{0x00, 0x01, 0xFF},
		},
		{
			name: "length above frame cap",
			data: []byte{0xFF, 0xFF, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDecoder(proto)
			d.Feed(tt.data)
			f, err := d.Next()
			if f != nil {
				t.Fatal("decoded a frame from garbage input")
			}
			if !errors.Is(err, ErrFraming) {
				t.Errorf("Next() error = %v, want ErrFraming", err)
			}
			if d.Buffered() != 0 {
				t.Error("decoder did not flush after framing error")
			}
		})
	}
}

func TestDecodeChecksumErrorConsumesFrame(t *testing.T) {
	t.Parallel()

	proto := V1()
	corrupt, _ := Encode(proto, proto.CmdFrame, []byte{0x01, 0x02})
	corrupt[len(corrupt)-1] ^= 0xFF
	good, _ := Encode(proto, proto.CmdNext, nil)

	d := NewDecoder(proto)
	d.Feed(append(append([]byte(nil), corrupt...), good...))

	f, err := d.Next()
	if f != nil || !errors.Is(err, ErrChecksum) {
		t.Fatalf("Next() = %v, %v; want nil, ErrChecksum", f, err)
	}

	// The corrupt frame must not wedge the stream.
	f, err = d.Next()
	if err != nil || f == nil || f.Cmd != proto.CmdNext {
		t.Fatalf("Next() after checksum error = %v, %v; want CmdNext", f, err)
	}
}

func TestForVersion(t *testing.T) {
	t.Parallel()

	p, err := ForVersion(1)
	if err != nil || p == nil || p.Version != 1 {
		t.Fatalf("ForVersion(1) = %v, %v", p, err)
	}

	_, err = ForVersion(99)
	if !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("ForVersion(99) error = %v, want ErrUnknownVersion", err)
	}
}
