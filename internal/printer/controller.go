// internal/printer/controller.go
package printer

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Device is the raw byte sink the controller owns, normally a serial port
type Device interface {
	io.Writer
	io.Closer
}

// Opener opens a device at a fixed baud rate
type Opener interface {
	Open(path string, baudRate int) (Device, error)
}

// Config is the construction-time printer configuration
type Config struct {
	Heating HeatingConfig `json:"heating"`
	Density DensityConfig `json:"density"`
}

// DefaultConfig returns the factory heating and density values
func DefaultConfig() Config {
	return Config{
		Heating: DefaultHeatingConfig(),
		Density: DefaultDensityConfig(),
	}
}

// Controller serializes all printer commands onto one device.
// Toggle state lives in the printer, not here: every call emits its bytes.
type Controller struct {
	mu      sync.Mutex
	session *Session
	device  Device
	closed  bool
	logger  *zap.Logger
}

// Dial opens path through opener at BaudRate and initializes the printer
func Dial(opener Opener, path string, cfg Config, logger *zap.Logger) (*Controller, error) {
	if err := cfg.Density.Validate(); err != nil {
		return nil, err
	}

	device, err := opener.Open(path, BaudRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransportUnavailable, path, err)
	}

	controller, err := New(device, cfg, logger.With(zap.String("port", path)))
	if err != nil {
		device.Close()
		return nil, err
	}

	return controller, nil
}

// New takes ownership of an open device and sends the startup sequence:
// initialize, print settings, print density.
func New(device Device, cfg Config, logger *zap.Logger) (*Controller, error) {
	if err := cfg.Density.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		device: device,
		logger: logger,
		session: &Session{
			device: device,
			logger: logger,
		},
	}

	for _, command := range []Command{
		CmdInitialize,
		PrintSettingsCommand(cfg.Heating),
		PrintDensityCommand(cfg.Density),
	} {
		if err := c.session.emit(command); err != nil {
			return nil, fmt.Errorf("failed to initialize printer: %w", err)
		}
	}

	logger.Info("Printer initialized",
		zap.Uint8("heating_dots", cfg.Heating.HeatingDots),
		zap.Uint8("heat_time", cfg.Heating.HeatTime),
		zap.Uint8("heat_interval", cfg.Heating.HeatInterval),
		zap.Uint8("print_density", cfg.Density.Density),
		zap.Uint8("print_break_time", cfg.Density.BreakTime),
	)

	return c, nil
}

// Do runs fn with exclusive access to the printer. Commands issued through
// the session can not be interleaved with any other caller.
func (c *Controller) Do(fn func(s *Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return fn(c.session)
}

// Close releases the device. Further calls return ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.device.Close(); err != nil {
		c.logger.Error("Failed to close printer device", zap.Error(err))
		return fmt.Errorf("failed to close printer device: %w", err)
	}

	c.logger.Info("Printer device closed")
	return nil
}

// Offline stops the printer from accepting commands until Online
func (c *Controller) Offline() error { return c.Do((*Session).Offline) }

// Online resumes command processing
func (c *Controller) Online() error { return c.Do((*Session).Online) }

// Reset reinitializes the printer. Heating and density are not resent.
func (c *Controller) Reset() error { return c.Do((*Session).Reset) }

// Linefeed advances the paper one line
func (c *Controller) Linefeed() error { return c.Do((*Session).Linefeed) }

// BoldOn turns emphasized printing on
func (c *Controller) BoldOn() error { return c.Do((*Session).BoldOn) }

// BoldOff turns emphasized printing off
func (c *Controller) BoldOff() error { return c.Do((*Session).BoldOff) }

// DoubleWidthOn doubles the character width
func (c *Controller) DoubleWidthOn() error { return c.Do((*Session).DoubleWidthOn) }

// DoubleWidthOff restores normal character width
func (c *Controller) DoubleWidthOff() error { return c.Do((*Session).DoubleWidthOff) }

// UpDownOn prints subsequent text upside down
func (c *Controller) UpDownOn() error { return c.Do((*Session).UpDownOn) }

// UpDownOff restores normal orientation
func (c *Controller) UpDownOff() error { return c.Do((*Session).UpDownOff) }

// InverseOn prints white on black
func (c *Controller) InverseOn() error { return c.Do((*Session).InverseOn) }

// InverseOff restores black on white
func (c *Controller) InverseOff() error { return c.Do((*Session).InverseOff) }

// PrintText writes caller-encoded bytes as they are
func (c *Controller) PrintText(text []byte) error {
	return c.Do(func(s *Session) error { return s.PrintText(text) })
}

// Justify sets the alignment of subsequent text
func (c *Controller) Justify(j Justification) error {
	return c.Do(func(s *Session) error { return s.Justify(j) })
}

// Bold runs fn between bold on and bold off while holding the printer
func (c *Controller) Bold(fn func(s *Session) error) error {
	return c.Do(func(s *Session) error { return s.Bold(fn) })
}

// DoubleWidth runs fn between double width on and off while holding the printer
func (c *Controller) DoubleWidth(fn func(s *Session) error) error {
	return c.Do(func(s *Session) error { return s.DoubleWidth(fn) })
}
