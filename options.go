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

package svl

import (
	"fmt"
	"time"

	"github.com/apollotools/go-svl/internal/frame"
)

// SessionConfig contains the timing and sizing parameters of one upload
// session.
type SessionConfig struct {
	// HandshakeBaud is the fixed low rate the bootloader is guaranteed to
	// listen on after reset.
	HandshakeBaud int

	// HandshakeAttempts bounds how many probe frames are sent before the
	// handshake is declared timed out.
	HandshakeAttempts int

	// ProbeWindow is how long the session waits for the version frame
	// after each probe.
	ProbeWindow time.Duration

	// ResponseTimeout bounds every per-frame wait after the handshake.
	ResponseTimeout time.Duration

	// EraseTimeout bounds the erase-all completion wait. Erase is slow;
	// tens of seconds is normal.
	EraseTimeout time.Duration

	// ResetSettle is the delay after toggling reset before probing, giving
	// the target time to come out of reset. 95 ms is the empirical
	// minimum; the default leaves headroom.
	ResetSettle time.Duration

	// ChunkSize is the transfer chunk size in bytes.
	ChunkSize int

	// ChunkRetries bounds send attempts per chunk, counting both resend
	// requests from the target and acknowledgment timeouts.
	ChunkRetries int
}

// DefaultSessionConfig returns the production session parameters.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		HandshakeBaud:     57600,
		HandshakeAttempts: 10,
		ProbeWindow:       300 * time.Millisecond,
		ResponseTimeout:   500 * time.Millisecond,
		EraseTimeout:      60 * time.Second,
		ResetSettle:       150 * time.Millisecond,
		ChunkSize:         512,
		ChunkRetries:      3,
	}
}

// Option is a functional option for configuring a Session
type Option func(*Session) error

// WithChunkSize sets the transfer chunk size. It must fit in one frame.
func WithChunkSize(size int) Option {
	return func(s *Session) error {
		if size <= 0 || size > s.proto.MaxPayload {
			return fmt.Errorf("chunk size %d outside (0, %d]: %w",
				size, s.proto.MaxPayload, frame.ErrPayloadTooBig)
		}
		s.config.ChunkSize = size
		return nil
	}
}

// WithChunkRetries bounds send attempts per chunk.
func WithChunkRetries(n int) Option {
	return func(s *Session) error {
		if n < 1 {
			return fmt.Errorf("chunk retries must be at least 1, got %d", n)
		}
		s.config.ChunkRetries = n
		return nil
	}
}

// WithHandshakeAttempts bounds probe attempts before the handshake is
// declared timed out.
func WithHandshakeAttempts(n int) Option {
	return func(s *Session) error {
		if n < 1 {
			return fmt.Errorf("handshake attempts must be at least 1, got %d", n)
		}
		s.config.HandshakeAttempts = n
		return nil
	}
}

// WithHandshakeBaud sets the fixed rate used for the handshake.
func WithHandshakeBaud(baud int) Option {
	return func(s *Session) error {
		if baud <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
		}
		s.config.HandshakeBaud = baud
		return nil
	}
}

// WithProbeWindow sets the per-probe response wait.
func WithProbeWindow(d time.Duration) Option {
	return func(s *Session) error {
		s.config.ProbeWindow = d
		return nil
	}
}

// WithResponseTimeout sets the per-frame response wait used after the
// handshake.
func WithResponseTimeout(d time.Duration) Option {
	return func(s *Session) error {
		s.config.ResponseTimeout = d
		return nil
	}
}

// WithEraseTimeout sets the erase-all completion bound.
func WithEraseTimeout(d time.Duration) Option {
	return func(s *Session) error {
		s.config.EraseTimeout = d
		return nil
	}
}

// WithResetSettle sets the post-reset settling delay.
func WithResetSettle(d time.Duration) Option {
	return func(s *Session) error {
		s.config.ResetSettle = d
		return nil
	}
}

// WithProtocolVersion selects the bootloader protocol revision the session
// speaks. Revision 1 is the deployed SVL protocol.
func WithProtocolVersion(version int) Option {
	return func(s *Session) error {
		p, err := frame.ForVersion(version)
		if err != nil {
			return err
		}
		s.proto = p
		return nil
	}
}

// WithProgressHandler registers a callback invoked after every acknowledged
// chunk. The callback runs on the session's goroutine and must not block.
func WithProgressHandler(fn func(ProgressEvent)) Option {
	return func(s *Session) error {
		s.onProgress = fn
		return nil
	}
}
