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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/apollotools/go-svl/internal/frame"
)

// Session drives one run of the bootloader protocol state machine over a
// Transport: handshake, baud negotiation, optional erase, chunked transfer
// and verification.
//
// A Session is single-use and not thread-safe. It owns the transport for the
// duration of Run but never opens or closes it; the orchestrator does that.
// When the handshake times out the orchestrator discards the session and
// starts a fresh one, which is the only way a phase ever "moves backward".
type Session struct {
	transport  Transport
	config     *SessionConfig
	proto      *frame.Protocol
	decoder    *frame.Decoder
	onProgress func(ProgressEvent)

	phase       Phase
	failedPhase Phase
	baudRate    int
	bytesSent   int
	blVersion   int
	lastErr     error
}

// NewSession creates a session over an open transport.
func NewSession(transport Transport, opts ...Option) (*Session, error) {
	s := &Session{
		transport: transport,
		config:    DefaultSessionConfig(),
		proto:     frame.V1(),
		phase:     PhaseIdle,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.config.ChunkSize > s.proto.MaxPayload {
		return nil, fmt.Errorf("chunk size %d exceeds frame capacity %d: %w",
			s.config.ChunkSize, s.proto.MaxPayload, frame.ErrPayloadTooBig)
	}

	s.decoder = frame.NewDecoder(s.proto)
	return s, nil
}

// Phase returns the current protocol phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// FailedPhase returns the phase the session was in when it failed, or
// PhaseIdle if it has not failed.
func (s *Session) FailedPhase() Phase {
	return s.failedPhase
}

// BytesSent returns the count of acknowledged image bytes.
func (s *Session) BytesSent() int {
	return s.bytesSent
}

// BootloaderVersion returns the version reported by the target during the
// handshake, or zero before the handshake completes.
func (s *Session) BootloaderVersion() int {
	return s.blVersion
}

// BaudRate returns the negotiated transfer rate, or zero before
// negotiation.
func (s *Session) BaudRate() int {
	return s.baudRate
}

// Err returns the error that terminated the session, if any.
func (s *Session) Err() error {
	return s.lastErr
}

// Run executes the full protocol sequence for one image. mode selects
// whether an erase-all precedes the transfer; targetBaud is the requested
// transfer rate.
//
// The returned error is ErrHandshakeTimeout when the target missed the
// reset window; the orchestrator treats that as retryable. Every other
// error is terminal for the upload.
func (s *Session) Run(ctx context.Context, image []byte, mode Mode, targetBaud int) error {
	if s.phase != PhaseIdle {
		return errors.New("session already run")
	}
	if len(image) == 0 {
		return s.fail(ErrEmptyImage)
	}
	if !SupportedBaud(targetBaud) {
		return s.fail(fmt.Errorf("%w: %d", ErrInvalidBaudRate, targetBaud))
	}

	if err := s.handshake(ctx); err != nil {
		return s.fail(err)
	}
	if err := s.negotiate(ctx, targetBaud); err != nil {
		return s.fail(err)
	}
	if mode == ModeBootloader {
		if err := s.eraseAll(ctx); err != nil {
			return s.fail(err)
		}
	}
	if err := s.transfer(ctx, image); err != nil {
		return s.fail(err)
	}
	if err := s.verify(ctx, len(image)); err != nil {
		return s.fail(err)
	}

	s.phase = PhaseComplete
	return nil
}

func (s *Session) fail(err error) error {
	s.failedPhase = s.phase
	s.phase = PhaseFailed
	s.lastErr = err
	debugf("session failed in phase %q: %v", s.failedPhase, err)
	return err
}

// handshake resets the target and probes it at the fixed handshake rate
// until the version frame arrives or the attempt bound is exhausted.
func (s *Session) handshake(ctx context.Context) error {
	s.phase = PhaseAwaitingHandshake

	if err := s.transport.SetBaudRate(s.config.HandshakeBaud); err != nil {
		return err
	}
	if err := s.transport.ToggleReset(); err != nil {
		return err
	}
	if err := sleepCtx(ctx, s.config.ResetSettle); err != nil {
		return err
	}
	// Clear the startup blip the target emits out of reset.
	if err := s.transport.ResetInput(); err != nil {
		return err
	}
	s.decoder.Reset()

	for attempt := 1; attempt <= s.config.HandshakeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}

		if _, err := s.transport.Write(s.proto.HandshakeProbe); err != nil {
			return wrapWrite(err)
		}

		f, err := s.awaitFrame(ctx, s.proto.CmdVersion, time.Now().Add(s.config.ProbeWindow))
		if err != nil {
			if errors.Is(err, ErrTransportTimeout) {
				debugf("handshake probe %d/%d unanswered", attempt, s.config.HandshakeAttempts)
				continue
			}
			return err
		}

		s.blVersion = versionFromPayload(f.Payload)
		debugf("bootloader version %d answered on probe %d", s.blVersion, attempt)
		return nil
	}

	return ErrHandshakeTimeout
}

// negotiate requests the transfer rate, verifies the target's echo,
// switches the link and locks the target into bootload mode. The baud rate
// is fixed for the rest of the session.
func (s *Session) negotiate(ctx context.Context, targetBaud int) error {
	var rate [4]byte
	binary.BigEndian.PutUint32(rate[:], uint32(targetBaud))

	if err := s.sendFrame(s.proto.CmdSetBaud, rate[:]); err != nil {
		return err
	}

	f, err := s.awaitFrame(ctx, s.proto.CmdSetBaud, time.Now().Add(s.config.ResponseTimeout))
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return fmt.Errorf("%w: no confirmation from target", ErrNegotiationFailed)
		}
		return err
	}
	if len(f.Payload) != 4 {
		return fmt.Errorf("%w: malformed confirmation", ErrNegotiationFailed)
	}
	if acked := int(binary.BigEndian.Uint32(f.Payload)); acked != targetBaud {
		return fmt.Errorf("%w: requested %d, target acknowledged %d",
			ErrNegotiationFailed, targetBaud, acked)
	}

	if err := s.transport.SetBaudRate(targetBaud); err != nil {
		return err
	}
	s.baudRate = targetBaud

	if err := s.sendFrame(s.proto.CmdBootload, nil); err != nil {
		return err
	}

	s.phase = PhaseBaudNegotiated
	debugf("negotiated %d baud", targetBaud)
	return nil
}

// eraseAll commands a whole-flash erase and waits for the completion
// frame. A timeout here is fatal: the erase state is unknown and a blind
// retry is unsafe.
func (s *Session) eraseAll(ctx context.Context) error {
	s.phase = PhaseErasing

	if err := s.sendFrame(s.proto.CmdErase, nil); err != nil {
		return err
	}

	f, err := s.awaitFrame(ctx, s.proto.CmdErase, time.Now().Add(s.config.EraseTimeout))
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return fmt.Errorf("%w: no completion frame", ErrEraseFailed)
		}
		return err
	}
	if len(f.Payload) < 1 || f.Payload[0] != 0 {
		return fmt.Errorf("%w: target status 0x%02X", ErrEraseFailed, statusByte(f.Payload))
	}

	debugln("flash erased")
	return nil
}

// transfer streams the image in fixed-size chunks, waiting for the
// target's acknowledgment before each next chunk. The target's limited
// receive buffer makes this flow control mandatory.
func (s *Session) transfer(ctx context.Context, image []byte) error {
	s.phase = PhaseTransferring

	total := len(image)
	for offset := 0; offset < total; offset += s.config.ChunkSize {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}

		end := offset + s.config.ChunkSize
		if end > total {
			end = total
		}
		if err := s.sendChunk(ctx, image[offset:end], offset); err != nil {
			return err
		}

		s.bytesSent += end - offset
		s.emitProgress(fmt.Sprintf("sent %d of %d bytes", s.bytesSent, total), total)
	}

	return nil
}

// sendChunk delivers one chunk, resending on the target's request or on an
// acknowledgment timeout, up to the per-chunk bound.
func (s *Session) sendChunk(ctx context.Context, chunk []byte, offset int) error {
	for attempt := 1; ; attempt++ {
		if err := s.sendFrame(s.proto.CmdFrame, chunk); err != nil {
			return err
		}

		f, err := s.awaitChunkAck(ctx)
		switch {
		case err == nil && f.Cmd == s.proto.CmdNext:
			return nil
		case err == nil && f.Cmd == s.proto.CmdRetry:
			debugf("target requested resend of chunk at offset %d (attempt %d)", offset, attempt)
		case err != nil && errors.Is(err, ErrTransportTimeout):
			debugf("no acknowledgment for chunk at offset %d (attempt %d)", offset, attempt)
		case errors.Is(err, ErrCancelled):
			return err
		default:
			return &TransferError{Offset: offset, Err: err}
		}

		if attempt >= s.config.ChunkRetries {
			return &TransferError{Offset: offset, Err: ErrTransportTimeout}
		}
	}
}

// awaitChunkAck waits for either an advance or a resend request.
func (s *Session) awaitChunkAck(ctx context.Context) (*frame.Frame, error) {
	deadline := time.Now().Add(s.config.ResponseTimeout)
	return s.awaitFrames(ctx, []byte{s.proto.CmdNext, s.proto.CmdRetry}, deadline)
}

// verify finalizes the transfer and checks the completion status reported
// by the target.
func (s *Session) verify(ctx context.Context, total int) error {
	s.phase = PhaseVerifying

	if err := s.sendFrame(s.proto.CmdDone, nil); err != nil {
		return err
	}

	f, err := s.awaitFrame(ctx, s.proto.CmdDone, time.Now().Add(s.config.ResponseTimeout))
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return fmt.Errorf("%w: no completion frame", ErrVerifyFailed)
		}
		return err
	}
	if len(f.Payload) < 1 || f.Payload[0] != 0 {
		return &VerifyError{Code: statusByte(f.Payload)}
	}

	debugf("verified %d bytes", total)
	return nil
}

func (s *Session) sendFrame(cmd byte, payload []byte) error {
	encoded, err := frame.Encode(s.proto, cmd, payload)
	if err != nil {
		return err
	}
	if _, err := s.transport.Write(encoded); err != nil {
		return wrapWrite(err)
	}
	return nil
}

// awaitFrame waits for a frame with the wanted command until the deadline.
func (s *Session) awaitFrame(ctx context.Context, want byte, deadline time.Time) (*frame.Frame, error) {
	return s.awaitFrames(ctx, []byte{want}, deadline)
}

// awaitFrames reads the transport until a frame matching one of the wanted
// commands arrives or the deadline passes. Frames with other commands are
// stray target chatter: they are discarded without extending or resetting
// the deadline. Checksum-invalid frames count as silence.
func (s *Session) awaitFrames(ctx context.Context, want []byte, deadline time.Time) (*frame.Frame, error) {
	buf := make([]byte, 256)

	for {
		for {
			f, err := s.decoder.Next()
			if err != nil {
				debugf("discarding corrupt frame: %v", err)
				continue
			}
			if f == nil {
				break
			}
			for _, w := range want {
				if f.Cmd == w {
					return f, nil
				}
			}
			debugf("discarding unexpected frame 0x%02X", f.Cmd)
		}

		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		if remaining := time.Until(deadline); remaining <= 0 {
			return nil, ErrTransportTimeout
		} else if err := s.transport.SetReadTimeout(remaining); err != nil {
			return nil, err
		}

		n, err := s.transport.Read(buf)
		if err != nil {
			return nil, NewTransportError("read", "", err, ErrorTypeTransient)
		}
		// The cancellation flag is observed after every blocking read
		// timeout, never mid-write.
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		if n == 0 {
			return nil, ErrTransportTimeout
		}
		s.decoder.Feed(buf[:n])
	}
}

func (s *Session) emitProgress(message string, total int) {
	if s.onProgress == nil {
		return
	}
	s.onProgress(ProgressEvent{
		Phase:   s.phase,
		Bytes:   s.bytesSent,
		Total:   total,
		Message: message,
	})
}

func versionFromPayload(payload []byte) int {
	v := 0
	for _, b := range payload {
		v = v<<8 | int(b)
	}
	return v
}

func statusByte(payload []byte) byte {
	if len(payload) == 0 {
		return 0xFF
	}
	return payload[0]
}

func wrapWrite(err error) error {
	return NewTransportError("write", "", err, ErrorTypeTransient)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-t.C:
		return nil
	}
}
