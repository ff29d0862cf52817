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
	"bytes"
	"sync"
	"time"
)

// MockTransport is a scriptable in-memory Transport used across the test
// suite. Reads drain a queue of pre-loaded bytes; writes are recorded. The
// hook functions, when set, override the default behavior.
type MockTransport struct {
	ReadFunc  func(p []byte) (int, error)
	WriteFunc func(p []byte) (int, error)

	mu          sync.Mutex
	readBuf     bytes.Buffer
	written     bytes.Buffer
	baud        int
	readTimeout time.Duration
	resets      int
	closed      bool
	closeCount  int
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{readTimeout: 50 * time.Millisecond}
}

// QueueRead appends bytes that subsequent Read calls will return.
func (m *MockTransport) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

// Written returns everything written so far.
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written.Bytes()...)
}

// Read pops queued bytes, or returns (0, nil) after the read timeout when
// nothing is queued, mirroring serial port timeout semantics.
func (m *MockTransport) Read(p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}

	deadline := time.Now().Add(m.currentReadTimeout())
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return 0, ErrTransportRead
		}
		if m.readBuf.Len() > 0 {
			n, _ := m.readBuf.Read(p)
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()

		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockTransport) currentReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readTimeout
}

// Write records the bytes.
func (m *MockTransport) Write(p []byte) (int, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrTransportWrite
	}
	m.written.Write(p)
	return len(p), nil
}

// SetBaudRate records the requested rate.
func (m *MockTransport) SetBaudRate(baud int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baud = baud
	return nil
}

// BaudRate returns the last rate set.
func (m *MockTransport) BaudRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baud
}

// SetReadTimeout bounds Read calls.
func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = timeout
	return nil
}

// ToggleReset counts reset pulses.
func (m *MockTransport) ToggleReset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

// Resets returns how many times the target was reset.
func (m *MockTransport) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// ResetInput discards queued read bytes.
func (m *MockTransport) ResetInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Reset()
	return nil
}

// Close marks the transport closed. Closing twice is counted so tests can
// assert the handle is released exactly once.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCount++
	return nil
}

// CloseCount returns how many times Close was called.
func (m *MockTransport) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// IsConnected returns true until the transport is closed.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
