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

// Package uploader sequences complete upload operations: it acquires the
// serial port, runs bootloader sessions with the documented
// retry-on-missed-reset policy, and streams progress to the caller over an
// ordered event channel.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"time"

	svl "github.com/apollotools/go-svl"
	"github.com/apollotools/go-svl/internal/retry"
	"github.com/apollotools/go-svl/transport/uart"
)

// TransportFactory opens a transport for an upload. The default opens a
// UART port; tests substitute simulated targets.
type TransportFactory func(port string, baud int) (svl.Transport, error)

// Config contains orchestrator-level settings, distinct from the
// per-session timing in svl.SessionConfig.
type Config struct {
	// TransportFactory opens the port for each upload.
	TransportFactory TransportFactory

	// SessionOptions are applied to every session.
	SessionOptions []svl.Option

	// MaxAttempts bounds full-session retries when the target misses the
	// reset window. The board sometimes needs more than one try; three
	// has been enough in practice.
	MaxAttempts int

	// RetryDelay is slept between session attempts.
	RetryDelay time.Duration

	// FlashCapacity caps the image size accepted for upload.
	FlashCapacity int
}

// DefaultConfig returns the production orchestrator settings.
func DefaultConfig() *Config {
	return &Config{
		TransportFactory: func(port string, baud int) (svl.Transport, error) {
			return uart.Open(port, baud)
		},
		MaxAttempts:   3,
		RetryDelay:    100 * time.Millisecond,
		FlashCapacity: svl.DefaultFlashCapacity,
	}
}

// Option is a functional option for configuring an Uploader
type Option func(*Uploader) error

// WithTransportFactory replaces how the port is opened.
func WithTransportFactory(factory TransportFactory) Option {
	return func(u *Uploader) error {
		if factory == nil {
			return errors.New("transport factory must not be nil")
		}
		u.config.TransportFactory = factory
		return nil
	}
}

// WithMaxAttempts bounds session-level retries on handshake timeout.
func WithMaxAttempts(n int) Option {
	return func(u *Uploader) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be at least 1, got %d", n)
		}
		u.config.MaxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the pause between session attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(u *Uploader) error {
		u.config.RetryDelay = d
		return nil
	}
}

// WithFlashCapacity overrides the image size cap for targets with a
// different flash layout.
func WithFlashCapacity(capacity int) Option {
	return func(u *Uploader) error {
		if capacity <= 0 {
			return fmt.Errorf("flash capacity must be positive, got %d", capacity)
		}
		u.config.FlashCapacity = capacity
		return nil
	}
}

// WithSessionOptions appends options applied to every session.
func WithSessionOptions(opts ...svl.Option) Option {
	return func(u *Uploader) error {
		u.config.SessionOptions = append(u.config.SessionOptions, opts...)
		return nil
	}
}

// Uploader runs upload operations. One Uploader may be reused, but at most
// one upload may be active at a time; the protocol is strictly sequential
// and the serial port is exclusively owned by the active session.
type Uploader struct {
	config *Config
}

// New creates an Uploader.
func New(opts ...Option) (*Uploader, error) {
	u := &Uploader{config: DefaultConfig()}
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Upload starts the operation on a dedicated goroutine and returns its
// event channel. Events arrive in the order produced; the terminal Result
// is the last event, after which the channel is closed exactly once.
//
// The caller must drain the channel. Cancel via ctx to abort: the
// cancellation is observed between chunk sends and after blocking read
// timeouts, and the port is released on every exit path.
func (u *Uploader) Upload(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go u.run(ctx, req, events)
	return events
}

func (u *Uploader) run(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)

	start := time.Now()
	result := &Result{Phase: svl.PhaseFailed}
	defer func() {
		result.Duration = time.Since(start)
		events <- Event{Result: result}
	}()

	if err := u.validate(req); err != nil {
		result.Err = err
		return
	}

	transport, err := u.config.TransportFactory(req.Port, req.Baud)
	if err != nil {
		result.Err = err
		return
	}
	// The port is released on every exit path; nothing else may touch it
	// while the upload runs.
	defer func() {
		_ = transport.Close()
	}()

	var last *svl.Session
	_, err = retry.WithRetry(ctx, retry.Config{
		MaxAttempts: u.config.MaxAttempts,
		Delay:       u.config.RetryDelay,
	}, func() (*svl.Session, bool, error) {
		result.Attempts++
		sess, err := u.runSession(ctx, transport, req, events)
		if sess != nil {
			last = sess
			result.BytesSent = sess.BytesSent()
			result.BootloaderVersion = sess.BootloaderVersion()
		}
		// Only a missed reset window is worth a fresh session; any other
		// failure kind is reported immediately.
		return sess, errors.Is(err, svl.ErrHandshakeTimeout), err
	})

	if err != nil {
		result.Err = err
		if last != nil {
			result.Phase = last.FailedPhase()
		}
		return
	}

	result.Phase = svl.PhaseComplete
}

// runSession runs one fresh session over the shared transport.
func (u *Uploader) runSession(
	ctx context.Context, transport svl.Transport, req Request, events chan<- Event,
) (*svl.Session, error) {
	opts := make([]svl.Option, 0, len(u.config.SessionOptions)+1)
	opts = append(opts, u.config.SessionOptions...)
	opts = append(opts, svl.WithProgressHandler(func(ev svl.ProgressEvent) {
		events <- Event{Progress: &ev}
	}))

	sess, err := svl.NewSession(transport, opts...)
	if err != nil {
		return nil, err
	}
	return sess, sess.Run(ctx, req.Image, req.Mode, req.Baud)
}

// validate pre-flights the request before any hardware is touched.
func (u *Uploader) validate(req Request) error {
	if req.Port == "" {
		return svl.ErrInvalidPort
	}
	if len(req.Image) == 0 {
		return svl.ErrEmptyImage
	}
	if len(req.Image) > u.config.FlashCapacity {
		return fmt.Errorf("%w: %d bytes, capacity %d",
			svl.ErrImageTooLarge, len(req.Image), u.config.FlashCapacity)
	}
	if !svl.SupportedBaud(req.Baud) {
		return fmt.Errorf("%w: %d", svl.ErrInvalidBaudRate, req.Baud)
	}
	return nil
}
