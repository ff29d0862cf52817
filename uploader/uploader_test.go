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

package uploader_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svl "github.com/apollotools/go-svl"
	"github.com/apollotools/go-svl/internal/svltest"
	"github.com/apollotools/go-svl/uploader"
)

// fastSession shrinks the per-session timing for tests.
func fastSession() uploader.Option {
	return uploader.WithSessionOptions(
		svl.WithResetSettle(0),
		svl.WithProbeWindow(25*time.Millisecond),
		svl.WithResponseTimeout(50*time.Millisecond),
		svl.WithHandshakeAttempts(3),
	)
}

func fixedTarget(tgt *svltest.Target) uploader.Option {
	return uploader.WithTransportFactory(func(string, int) (svl.Transport, error) {
		return tgt, nil
	})
}

func testImage(n int) []byte {
	img := make([]byte, n)
	for i := range img {
		img[i] = byte(i * 13)
	}
	return img
}

// drain consumes the event channel until it closes, verifying the channel
// contract along the way: at most one terminal result, and nothing after it.
func drain(t *testing.T, ch <-chan uploader.Event) ([]svl.ProgressEvent, *uploader.Result) {
	t.Helper()

	var progress []svl.ProgressEvent
	var result *uploader.Result
	for ev := range ch {
		switch {
		case ev.Progress != nil:
			require.Nil(t, result, "progress event after the terminal result")
			progress = append(progress, *ev.Progress)
		case ev.Result != nil:
			require.Nil(t, result, "more than one terminal result")
			result = ev.Result
		default:
			t.Fatal("event with neither progress nor result set")
		}
	}
	require.NotNil(t, result, "channel closed without a terminal result")
	return progress, result
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	tgt := svltest.New(svltest.Config{BootloaderVersion: 5})
	u, err := uploader.New(fixedTarget(tgt), fastSession(),
		uploader.WithSessionOptions(svl.WithChunkSize(512)))
	require.NoError(t, err)

	img := testImage(2048)
	progress, result := drain(t, u.Upload(context.Background(), uploader.Request{
		Image: img,
		Port:  "/dev/ttyUSB0",
		Baud:  921600,
		Mode:  svl.ModeFirmware,
	}))

	require.True(t, result.Success())
	assert.Equal(t, svl.PhaseComplete, result.Phase)
	assert.Equal(t, len(img), result.BytesSent)
	assert.Equal(t, 5, result.BootloaderVersion)
	assert.Equal(t, 1, result.Attempts)
	assert.Positive(t, result.Duration)
	assert.Positive(t, result.Throughput())

	assert.Len(t, progress, 4)
	assert.Equal(t, img, tgt.Flash())
	assert.Equal(t, 1, tgt.CloseCount())
}

func TestUploadRetriesMissedResetWindow(t *testing.T) {
	t.Parallel()

	tgt := svltest.New(svltest.NeverHandshakes())
	u, err := uploader.New(fixedTarget(tgt), fastSession(),
		uploader.WithMaxAttempts(3),
		uploader.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	progress, result := drain(t, u.Upload(context.Background(), uploader.Request{
		Image: testImage(512),
		Port:  "/dev/ttyUSB0",
		Baud:  115200,
	}))

	require.ErrorIs(t, result.Err, svl.ErrHandshakeTimeout)
	assert.Equal(t, svl.PhaseAwaitingHandshake, result.Phase)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, progress)

	// Each attempt is a fresh session with its own reset pulse; the port
	// is opened and released once for the whole upload.
	assert.Equal(t, 3, tgt.Resets())
	assert.Equal(t, 1, tgt.CloseCount())
}

// wakesLate wraps a target that sleeps through its first reset windows, the
// board behavior the session-level retry exists for.
type wakesLate struct {
	*svltest.Target
	wakeAfterResets int
}

func (w *wakesLate) Read(p []byte) (int, error) {
	if w.Resets() < w.wakeAfterResets {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	return w.Target.Read(p)
}

func TestUploadRecoversOnSecondAttempt(t *testing.T) {
	t.Parallel()

	tgt := svltest.New(svltest.Config{})
	late := &wakesLate{Target: tgt, wakeAfterResets: 2}
	u, err := uploader.New(fastSession(),
		uploader.WithTransportFactory(func(string, int) (svl.Transport, error) {
			return late, nil
		}),
		uploader.WithMaxAttempts(3),
		uploader.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	img := testImage(1024)
	_, result := drain(t, u.Upload(context.Background(), uploader.Request{
		Image: img,
		Port:  "/dev/ttyUSB0",
		Baud:  115200,
	}))

	require.True(t, result.Success())
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, img, tgt.Flash())
	assert.Equal(t, 1, tgt.CloseCount())
}

func TestUploadFailuresAreNotRetried(t *testing.T) {
	t.Parallel()

	tgt := svltest.New(svltest.Config{VerifyStatus: 0x04})
	u, err := uploader.New(fixedTarget(tgt), fastSession(),
		uploader.WithMaxAttempts(3))
	require.NoError(t, err)

	_, result := drain(t, u.Upload(context.Background(), uploader.Request{
		Image: testImage(512),
		Port:  "/dev/ttyUSB0",
		Baud:  115200,
	}))

	require.ErrorIs(t, result.Err, svl.ErrVerifyFailed)
	assert.Equal(t, svl.PhaseVerifying, result.Phase)
	// Only a missed reset window earns a second session.
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, tgt.Resets())
}

func TestUploadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		req     uploader.Request
	}{
		{
			name:    "missing port",
			req:     uploader.Request{Image: testImage(16), Baud: 115200},
			wantErr: svl.ErrInvalidPort,
		},
		{
			name:    "empty image",
			req:     uploader.Request{Port: "/dev/ttyUSB0", Baud: 115200},
			wantErr: svl.ErrEmptyImage,
		},
		{
			name: "image exceeds flash capacity",
			req: uploader.Request{
				Image: testImage(2048),
				Port:  "/dev/ttyUSB0",
				Baud:  115200,
			},
			wantErr: svl.ErrImageTooLarge,
		},
		{
			name: "unsupported baud rate",
			req: uploader.Request{
				Image: testImage(16),
				Port:  "/dev/ttyUSB0",
				Baud:  19200,
			},
			wantErr: svl.ErrInvalidBaudRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opened atomic.Bool
			u, err := uploader.New(
				uploader.WithFlashCapacity(1024),
				uploader.WithTransportFactory(func(string, int) (svl.Transport, error) {
					opened.Store(true)
					return svltest.New(svltest.Config{}), nil
				}))
			require.NoError(t, err)

			progress, result := drain(t, u.Upload(context.Background(), tt.req))

			require.ErrorIs(t, result.Err, tt.wantErr)
			assert.Empty(t, progress)
			assert.Zero(t, result.Attempts)
			assert.False(t, opened.Load(), "port must not be opened for an invalid request")
		})
	}
}

func TestUploadPortOpenFailure(t *testing.T) {
	t.Parallel()

	openErr := errors.New("open /dev/ttyUSB0: no such device")
	u, err := uploader.New(
		uploader.WithTransportFactory(func(string, int) (svl.Transport, error) {
			return nil, openErr
		}))
	require.NoError(t, err)

	_, result := drain(t, u.Upload(context.Background(), uploader.Request{
		Image: testImage(16),
		Port:  "/dev/ttyUSB0",
		Baud:  115200,
	}))

	require.ErrorIs(t, result.Err, openErr)
	assert.False(t, result.Success())
	assert.Zero(t, result.Attempts)
}

func TestUploadCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tgt := svltest.New(svltest.Config{})
	u, err := uploader.New(fixedTarget(tgt), fastSession(),
		uploader.WithSessionOptions(svl.WithChunkSize(512)))
	require.NoError(t, err)

	ch := u.Upload(ctx, uploader.Request{
		Image: testImage(4096),
		Port:  "/dev/ttyUSB0",
		Baud:  115200,
	})

	var progress int
	var result *uploader.Result
	for ev := range ch {
		if ev.Progress != nil {
			progress++
			cancel()
		}
		if ev.Result != nil {
			result = ev.Result
		}
	}

	require.NotNil(t, result)
	require.ErrorIs(t, result.Err, svl.ErrCancelled)
	assert.Less(t, progress, 8, "cancellation must stop the chunk stream early")
	assert.Equal(t, 1, tgt.CloseCount(), "the port is released on the cancel path")
}

func TestUploaderOptionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opt  uploader.Option
		name string
	}{
		{name: "nil transport factory", opt: uploader.WithTransportFactory(nil)},
		{name: "zero max attempts", opt: uploader.WithMaxAttempts(0)},
		{name: "negative flash capacity", opt: uploader.WithFlashCapacity(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := uploader.New(tt.opt)
			require.Error(t, err)
		})
	}
}
