// Package printertest provides an in-memory printer device for tests.
package printertest

import (
	"errors"
	"sync"

	"thermal-printer/internal/printer"
)

// ErrInjected is returned by a Device write chosen to fail
var ErrInjected = errors.New("injected write failure")

// Device records every byte written to it
type Device struct {
	mu     sync.Mutex
	data   []byte
	writes [][]byte
	closed bool

	// FailOnWrite makes the n-th Write call (1-based, counted since the last
	// Reset) fail. Zero disables it.
	FailOnWrite int
	// ShortWrite makes the failing write report half of its bytes written
	// with no error instead of returning ErrInjected.
	ShortWrite bool
}

// Write implements printer.Device
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("device closed")
	}

	if d.FailOnWrite > 0 && len(d.writes)+1 == d.FailOnWrite {
		d.writes = append(d.writes, nil)
		if d.ShortWrite {
			n := len(p) / 2
			d.data = append(d.data, p[:n]...)
			return n, nil
		}
		return 0, ErrInjected
	}

	chunk := append([]byte(nil), p...)
	d.writes = append(d.writes, chunk)
	d.data = append(d.data, chunk...)
	return len(p), nil
}

// Close implements printer.Device
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Bytes returns a copy of the full byte stream
func (d *Device) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.data...)
}

// Writes returns the number of Write calls so far
func (d *Device) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

// Reset drops everything recorded so far
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
	d.writes = nil
}

// IsClosed reports whether Close was called
func (d *Device) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Opener hands out a fixed Device, or Err if set
type Opener struct {
	Device   *Device
	Err      error
	Path     string
	BaudRate int
}

// Open implements printer.Opener
func (o *Opener) Open(path string, baudRate int) (printer.Device, error) {
	o.Path = path
	o.BaudRate = baudRate
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Device, nil
}

// InitSequence is what a controller writes on construction
func InitSequence(cfg printer.Config) []byte {
	h := cfg.Heating
	return []byte{27, 64, 27, 55, h.HeatingDots, h.HeatTime, h.HeatInterval, 18, 35, cfg.Density.Encode()}
}

// NewController builds a controller on a fresh Device and clears the init bytes
func NewController(cfg printer.Config) (*printer.Controller, *Device, error) {
	device := &Device{}
	c, err := printer.New(device, cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	device.Reset()
	return c, device, nil
}
