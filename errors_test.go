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

package svl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svl "github.com/apollotools/go-svl"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout", err: svl.ErrTransportTimeout, want: true},
		{name: "transport read", err: svl.ErrTransportRead, want: true},
		{name: "transport write", err: svl.ErrTransportWrite, want: true},
		{name: "checksum mismatch", err: svl.ErrChecksumMismatch, want: true},
		{name: "handshake timeout", err: svl.ErrHandshakeTimeout, want: true},
		{name: "negotiation failed", err: svl.ErrNegotiationFailed, want: false},
		{name: "erase failed", err: svl.ErrEraseFailed, want: false},
		{name: "verify failed", err: svl.ErrVerifyFailed, want: false},
		{name: "device not found", err: svl.ErrDeviceNotFound, want: false},
		{name: "empty image", err: svl.ErrEmptyImage, want: false},
		{name: "cancelled", err: svl.ErrCancelled, want: false},
		{
			name: "wrapped handshake timeout",
			err:  fmt.Errorf("attempt 2: %w", svl.ErrHandshakeTimeout),
			want: true,
		},
		{
			name: "transient transport error",
			err:  svl.NewTransportError("read", "/dev/ttyUSB0", errors.New("io"), svl.ErrorTypeTransient),
			want: true,
		},
		{
			name: "timeout transport error",
			err:  svl.NewTimeoutError("read", "/dev/ttyUSB0"),
			want: true,
		},
		{
			name: "permanent transport error",
			err:  svl.NewTransportError("open", "/dev/ttyUSB0", errors.New("gone"), svl.ErrorTypePermanent),
			want: false,
		},
		{name: "unknown error", err: errors.New("mystery"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, svl.IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want svl.ErrorType
	}{
		{name: "nil error", err: nil, want: svl.ErrorTypePermanent},
		{name: "transport timeout", err: svl.ErrTransportTimeout, want: svl.ErrorTypeTimeout},
		{name: "handshake timeout", err: svl.ErrHandshakeTimeout, want: svl.ErrorTypeTimeout},
		{name: "transport read", err: svl.ErrTransportRead, want: svl.ErrorTypeTransient},
		{name: "transport write", err: svl.ErrTransportWrite, want: svl.ErrorTypeTransient},
		{name: "checksum mismatch", err: svl.ErrChecksumMismatch, want: svl.ErrorTypeTransient},
		{name: "verify failed", err: svl.ErrVerifyFailed, want: svl.ErrorTypePermanent},
		{name: "unknown error", err: errors.New("mystery"), want: svl.ErrorTypePermanent},
		{
			name: "typed transport error wins over wrapping",
			err:  fmt.Errorf("outer: %w", svl.NewTransportError("write", "", errors.New("io"), svl.ErrorTypeTransient)),
			want: svl.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, svl.GetErrorType(tt.err))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("device unplugged")

	t.Run("message includes port when known", func(t *testing.T) {
		t.Parallel()
		err := svl.NewTransportError("read", "/dev/ttyUSB0", cause, svl.ErrorTypeTransient)
		assert.Equal(t, "transport read on /dev/ttyUSB0: device unplugged", err.Error())
	})

	t.Run("message without port", func(t *testing.T) {
		t.Parallel()
		err := svl.NewTransportError("write", "", cause, svl.ErrorTypeTransient)
		assert.Equal(t, "transport write: device unplugged", err.Error())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		t.Parallel()
		err := svl.NewTransportError("read", "", cause, svl.ErrorTypeTransient)
		require.ErrorIs(t, err, cause)
	})

	t.Run("timeout constructor is retryable", func(t *testing.T) {
		t.Parallel()
		err := svl.NewTimeoutError("read", "COM3")
		assert.True(t, err.Retryable)
		assert.Equal(t, svl.ErrorTypeTimeout, err.Type)
		require.ErrorIs(t, err, svl.ErrTransportTimeout)
	})
}

func TestTransferError(t *testing.T) {
	t.Parallel()

	err := &svl.TransferError{Offset: 1536, Err: svl.ErrTransportTimeout}

	assert.Contains(t, err.Error(), "1536")
	require.ErrorIs(t, err, svl.ErrTransferFailed)
	require.ErrorIs(t, err, svl.ErrTransportTimeout)

	var te *svl.TransferError
	require.ErrorAs(t, fmt.Errorf("upload: %w", err), &te)
	assert.Equal(t, 1536, te.Offset)
}

func TestVerifyError(t *testing.T) {
	t.Parallel()

	err := &svl.VerifyError{Code: 0x2A}

	assert.Contains(t, err.Error(), "0x2A")
	require.ErrorIs(t, err, svl.ErrVerifyFailed)

	var ve *svl.VerifyError
	require.ErrorAs(t, fmt.Errorf("upload: %w", err), &ve)
	assert.Equal(t, byte(0x2A), ve.Code)
}
