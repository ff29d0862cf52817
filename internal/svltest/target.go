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

// Package svltest provides a simulated SVL bootloader target for tests. The
// Target implements svl.Transport and plays the device side of the
// protocol with scriptable misbehavior: missed reset windows, resend
// requests, dropped acknowledgments and failure status codes.
package svltest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	svl "github.com/apollotools/go-svl"
	"github.com/apollotools/go-svl/internal/frame"
)

// Config scripts the simulated target's behavior.
type Config struct {
	// RetryChunks maps a chunk index to how many times the target requests
	// a resend before accepting it.
	RetryChunks map[int]int

	// DropChunkAcks maps a chunk index to how many times the target stays
	// silent after receiving it.
	DropChunkAcks map[int]int

	// AckAfterProbes is which handshake probe gets the version answer.
	// Zero means the target never answers, as when the reset window was
	// missed entirely.
	AckAfterProbes int

	// BootloaderVersion is reported in the handshake answer.
	BootloaderVersion int

	// WrongBaudAck, when non-zero, is acknowledged in place of the
	// requested transfer rate.
	WrongBaudAck int

	// EraseStatus and VerifyStatus are the status bytes in the respective
	// completion frames. Zero is success.
	EraseStatus  byte
	VerifyStatus byte

	// DropBaudAck, DropErase and DropDone silence the corresponding
	// responses.
	DropBaudAck bool
	DropErase   bool
	DropDone    bool
}

// Target is a simulated bootloader behind the svl.Transport interface.
type Target struct {
	retryChunks map[int]int
	dropAcks    map[int]int
	proto       *frame.Protocol
	dec         *frame.Decoder

	mu            sync.Mutex
	out           bytes.Buffer
	flash         bytes.Buffer
	cfg           Config
	readTimeout   time.Duration
	probes        int
	handshaken    bool
	lockedIn      bool
	requestedBaud int
	linkBaud      int
	chunksAcked   int
	resets        int
	closed        bool
	closeCount    int
}

// New creates a target with the given script. Zero-value fields get
// cooperative defaults: answer the first probe, succeed everything.
func New(cfg Config) *Target {
	if cfg.AckAfterProbes == 0 && !neverAnswers(cfg) {
		cfg.AckAfterProbes = 1
	}
	if cfg.BootloaderVersion == 0 {
		cfg.BootloaderVersion = 5
	}

	t := &Target{
		cfg:         cfg,
		proto:       frame.V1(),
		dec:         frame.NewDecoder(frame.V1()),
		readTimeout: 50 * time.Millisecond,
		retryChunks: map[int]int{},
		dropAcks:    map[int]int{},
	}
	for k, v := range cfg.RetryChunks {
		t.retryChunks[k] = v
	}
	for k, v := range cfg.DropChunkAcks {
		t.dropAcks[k] = v
	}
	return t
}

// neverAnswers reports whether the config was explicitly built around a
// target that misses the reset window.
func neverAnswers(cfg Config) bool {
	// A config is "never answers" only when the caller left every other
	// field zero too; NeverHandshakes() is the supported way to build one.
	return cfg.BootloaderVersion < 0
}

// NeverHandshakes returns a config for a target that misses every reset
// window: the single most common SVL fault mode.
func NeverHandshakes() Config {
	return Config{BootloaderVersion: -1}
}

// Flash returns the image bytes the target has accepted so far.
func (t *Target) Flash() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.flash.Bytes()...)
}

// Probes returns handshake probes seen since the last reset.
func (t *Target) Probes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probes
}

// Resets returns how many reset pulses the target has seen.
func (t *Target) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

// CloseCount returns how many times the transport was closed.
func (t *Target) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}

// ChunksAcked returns how many chunks the target has accepted.
func (t *Target) ChunksAcked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chunksAcked
}

// RequestedBaud returns the transfer rate the host asked for.
func (t *Target) RequestedBaud() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestedBaud
}

// LinkBaud returns the rate the host last configured on the link.
func (t *Target) LinkBaud() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.linkBaud
}

// Write receives host bytes and runs the device side of the protocol.
func (t *Target) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, errors.New("transport closed")
	}

	data := p
	if !t.handshaken {
		data = t.consumeProbes(p)
	}
	if len(data) > 0 {
		t.dec.Feed(data)
		t.drainFrames()
	}
	return len(p), nil
}

// consumeProbes counts leading probe bytes and answers the configured one.
// Returns any non-probe remainder for frame decoding.
func (t *Target) consumeProbes(p []byte) []byte {
	probe := t.proto.HandshakeProbe[0]
	for len(p) > 0 && p[0] == probe && !t.handshaken {
		t.probes++
		p = p[1:]
		if t.cfg.AckAfterProbes > 0 && t.probes == t.cfg.AckAfterProbes {
			t.handshaken = true
			t.respond(t.proto.CmdVersion, []byte{byte(t.cfg.BootloaderVersion)})
		}
	}
	return p
}

func (t *Target) drainFrames() {
	for {
		f, err := t.dec.Next()
		if err != nil {
			continue
		}
		if f == nil {
			return
		}
		t.handleFrame(f)
	}
}

func (t *Target) handleFrame(f *frame.Frame) {
	p := t.proto
	switch f.Cmd {
	case p.CmdSetBaud:
		if len(f.Payload) == 4 {
			t.requestedBaud = int(binary.BigEndian.Uint32(f.Payload))
		}
		if t.cfg.DropBaudAck {
			return
		}
		acked := t.requestedBaud
		if t.cfg.WrongBaudAck != 0 {
			acked = t.cfg.WrongBaudAck
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(acked))
		t.respond(p.CmdSetBaud, buf[:])

	case p.CmdBootload:
		t.lockedIn = true

	case p.CmdErase:
		if t.cfg.DropErase {
			return
		}
		t.respond(p.CmdErase, []byte{t.cfg.EraseStatus})

	case p.CmdFrame:
		idx := t.chunksAcked
		if t.dropAcks[idx] > 0 {
			t.dropAcks[idx]--
			return
		}
		if t.retryChunks[idx] > 0 {
			t.retryChunks[idx]--
			t.respond(p.CmdRetry, nil)
			return
		}
		t.flash.Write(f.Payload)
		t.chunksAcked++
		t.respond(p.CmdNext, nil)

	case p.CmdDone:
		if t.cfg.DropDone {
			return
		}
		t.respond(p.CmdDone, []byte{t.cfg.VerifyStatus})
	}
}

func (t *Target) respond(cmd byte, payload []byte) {
	encoded, err := frame.Encode(t.proto, cmd, payload)
	if err != nil {
		return
	}
	t.out.Write(encoded)
}

// Read returns pending target-to-host bytes, or (0, nil) once the read
// timeout expires with nothing pending.
func (t *Target) Read(p []byte) (int, error) {
	deadline := time.Now().Add(t.currentReadTimeout())
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return 0, errors.New("transport closed")
		}
		if t.out.Len() > 0 {
			n, _ := t.out.Read(p)
			t.mu.Unlock()
			return n, nil
		}
		t.mu.Unlock()

		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(200 * time.Microsecond)
	}
}

func (t *Target) currentReadTimeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readTimeout
}

// SetBaudRate records the host-side link rate.
func (t *Target) SetBaudRate(baud int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.linkBaud = baud
	return nil
}

// SetReadTimeout bounds Read calls.
func (t *Target) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeout = timeout
	return nil
}

// ToggleReset simulates a hardware reset: per-session protocol state is
// cleared, accepted flash contents survive.
func (t *Target) ToggleReset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resets++
	t.probes = 0
	t.handshaken = false
	t.lockedIn = false
	t.out.Reset()
	t.dec.Reset()
	return nil
}

// ResetInput discards pending target-to-host bytes.
func (t *Target) ResetInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Reset()
	return nil
}

// Close marks the transport closed and counts the call.
func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeCount++
	return nil
}

// IsConnected returns true until Close.
func (t *Target) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Type returns svl.TransportMock.
func (*Target) Type() svl.TransportType {
	return svl.TransportMock
}
