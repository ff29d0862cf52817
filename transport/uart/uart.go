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

// Package uart implements the svl.Transport interface over a USB-serial
// port using go.bug.st/serial.
package uart

import (
	"errors"
	"fmt"
	"time"

	svl "github.com/apollotools/go-svl"
	"go.bug.st/serial"
)

// resetPulse is how long the control lines are held asserted to reset the
// target into its bootloader window.
const resetPulse = 100 * time.Millisecond

// defaultReadTimeout bounds reads until the session configures its own.
const defaultReadTimeout = 500 * time.Millisecond

// Transport is a serial-port implementation of svl.Transport.
type Transport struct {
	port        serial.Port
	portName    string
	baud        int
	readTimeout time.Duration
	connected   bool
}

// Open opens the serial port at the given rate: 8 data bits, no parity,
// one stop bit, the SVL link format.
func Open(portName string, baud int) (*Transport, error) {
	if portName == "" {
		return nil, svl.ErrInvalidPort
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, mapOpenError(portName, err)
	}

	t := &Transport{
		port:        port,
		portName:    portName,
		baud:        baud,
		readTimeout: defaultReadTimeout,
		connected:   true,
	}
	if err := port.SetReadTimeout(t.readTimeout); err != nil {
		_ = port.Close()
		return nil, svl.NewTransportError("open", portName, err, svl.ErrorTypePermanent)
	}
	return t, nil
}

// mapOpenError translates go.bug.st/serial open failures into the svl
// error taxonomy so callers can distinguish them.
func mapOpenError(portName string, err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortNotFound:
			return svl.NewTransportError("open", portName, svl.ErrDeviceNotFound, svl.ErrorTypePermanent)
		case serial.PermissionDenied:
			return svl.NewTransportError("open", portName, svl.ErrPortPermission, svl.ErrorTypePermanent)
		case serial.PortBusy:
			return svl.NewTransportError("open", portName, svl.ErrPortBusy, svl.ErrorTypePermanent)
		}
	}
	return svl.NewTransportError("open", portName, err, svl.ErrorTypePermanent)
}

// Read returns available bytes, or (0, nil) when the read timeout expires
// with nothing received.
func (t *Transport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		return n, svl.NewTransportError("read", t.portName, err, svl.ErrorTypeTransient)
	}
	return n, nil
}

// Write sends p in full.
func (t *Transport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, svl.NewTransportError("write", t.portName, err, svl.ErrorTypeTransient)
	}
	if n != len(p) {
		return n, svl.NewTransportError("write", t.portName,
			fmt.Errorf("%w: short write %d of %d", svl.ErrTransportWrite, n, len(p)),
			svl.ErrorTypeTransient)
	}
	return n, nil
}

// SetBaudRate re-configures the link speed without closing the port.
func (t *Transport) SetBaudRate(baud int) error {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := t.port.SetMode(mode); err != nil {
		return svl.NewTransportError("set baud", t.portName, err, svl.ErrorTypePermanent)
	}
	t.baud = baud
	return nil
}

// SetReadTimeout bounds every subsequent Read.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return svl.NewTransportError("set timeout", t.portName, err, svl.ErrorTypePermanent)
	}
	t.readTimeout = timeout
	return nil
}

// ToggleReset pulses DTR and RTS to hardware-reset the target. On Artemis
// boards the DTR line is wired to the reset pin through the USB-serial
// bridge.
func (t *Transport) ToggleReset() error {
	if err := t.port.SetDTR(false); err != nil {
		return svl.NewTransportError("reset", t.portName, err, svl.ErrorTypePermanent)
	}
	if err := t.port.SetRTS(false); err != nil {
		return svl.NewTransportError("reset", t.portName, err, svl.ErrorTypePermanent)
	}
	time.Sleep(resetPulse)
	if err := t.port.SetDTR(true); err != nil {
		return svl.NewTransportError("reset", t.portName, err, svl.ErrorTypePermanent)
	}
	if err := t.port.SetRTS(true); err != nil {
		return svl.NewTransportError("reset", t.portName, err, svl.ErrorTypePermanent)
	}
	return nil
}

// ResetInput discards unread bytes.
func (t *Transport) ResetInput() error {
	if err := t.port.ResetInputBuffer(); err != nil {
		return svl.NewTransportError("flush", t.portName, err, svl.ErrorTypeTransient)
	}
	return nil
}

// Close releases the port.
func (t *Transport) Close() error {
	if !t.connected {
		return nil
	}
	t.connected = false
	if err := t.port.Close(); err != nil {
		return svl.NewTransportError("close", t.portName, err, svl.ErrorTypePermanent)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.connected
}

// Type returns the transport type
func (*Transport) Type() svl.TransportType {
	return svl.TransportUART
}

// PortName returns the device path this transport was opened on.
func (t *Transport) PortName() string {
	return t.portName
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
