// internal/protocol/opener.go
package protocol

import (
	"sort"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"thermal-printer/internal/printer"
)

// SerialOpener opens printer devices on serial ports. Line settings other
// than port and baud rate come from Defaults.
type SerialOpener struct {
	Defaults SerialConfig
	Logger   *zap.Logger

	mu   sync.Mutex
	last *SerialConnection
}

// NewSerialOpener creates an opener with the given line defaults
func NewSerialOpener(defaults SerialConfig, logger *zap.Logger) *SerialOpener {
	return &SerialOpener{Defaults: defaults, Logger: logger}
}

// Open implements printer.Opener
func (o *SerialOpener) Open(path string, baudRate int) (printer.Device, error) {
	cfg := o.Defaults
	cfg.Port = path
	cfg.BaudRate = baudRate

	conn, err := OpenSerial(&cfg, o.Logger)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.last = conn
	o.mu.Unlock()

	return conn, nil
}

// Connection returns the most recently opened connection, or nil
func (o *SerialOpener) Connection() *SerialConnection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// listPorts is replaced in tests
var listPorts = serial.GetPortsList

// ListPorts returns the serial ports present on this host, sorted
func ListPorts() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
