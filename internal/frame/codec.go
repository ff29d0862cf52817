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
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame errors.
var (
	ErrChecksum       = errors.New("checksum mismatch")
	ErrFraming        = errors.New("invalid frame length")
	ErrPayloadTooBig  = errors.New("payload exceeds frame capacity")
	ErrUnknownVersion = errors.New("unknown protocol version")
)

// Frame is one decoded protocol message: a command byte and its payload.
// The length prefix and checksum trailer are consumed by the codec and do
// not appear here.
type Frame struct {
	Payload []byte
	Cmd     byte
}

// lengthSize is the big-endian length prefix on every frame. The length
// covers the command byte, payload and checksum trailer.
const lengthSize = 2

// Encode produces one self-delimited frame:
//
//	[len:2 BE][cmd:1][payload...][checksum]
func Encode(p *Protocol, cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > p.MaxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooBig, len(payload), p.MaxPayload)
	}

	ckSize := p.Checksum.Size()
	body := make([]byte, 0, 1+len(payload))
	body = append(body, cmd)
	body = append(body, payload...)

	out := make([]byte, 0, lengthSize+len(body)+ckSize)
	out = binary.BigEndian.AppendUint16(out, uint16(len(body)+ckSize))
	out = append(out, body...)
	out = append(out, p.Checksum.Sum(body)...)
	return out, nil
}

// Decoder reassembles frames from a byte stream. Feed may deliver any
// fragment of a frame; Next returns a frame once one is complete. A nil
// frame with a nil error means more data is needed.
type Decoder struct {
	proto *Protocol
	buf   []byte
}

// NewDecoder creates a decoder for the given protocol revision.
func NewDecoder(p *Protocol) *Decoder {
	return &Decoder{proto: p}
}

// Feed appends raw stream bytes to the decoder.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Buffered returns the number of undecoded bytes held.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards any partial frame state.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Next extracts the next complete frame, if any.
//
// A checksum failure consumes the corrupt frame and returns ErrChecksum; a
// length field outside protocol bounds flushes the buffer and returns
// ErrFraming, since byte alignment has been lost and the stream can only
// recover at the next exchange.
func (d *Decoder) Next() (*Frame, error) {
	if len(d.buf) < lengthSize {
		return nil, nil
	}

	ckSize := d.proto.Checksum.Size()
	length := int(binary.BigEndian.Uint16(d.buf))
	if length < 1+ckSize || length > 1+d.proto.MaxPayload+ckSize {
		d.Reset()
		return nil, fmt.Errorf("%w: length field %d", ErrFraming, length)
	}

	if len(d.buf) < lengthSize+length {
		return nil, nil
	}

	body := d.buf[lengthSize : lengthSize+length-ckSize]
	sum := d.buf[lengthSize+length-ckSize : lengthSize+length]

	var f *Frame
	var err error
	if d.proto.Checksum.Verify(body, sum) {
		f = &Frame{
			Cmd:     body[0],
			Payload: append([]byte(nil), body[1:]...),
		}
	} else {
		err = ErrChecksum
	}

	d.buf = append(d.buf[:0], d.buf[lengthSize+length:]...)
	return f, err
}
