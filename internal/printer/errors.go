// internal/printer/errors.go
package printer

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportUnavailable means the serial device could not be opened or configured
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrTransportWriteFailed means a command did not fully reach the transport
	ErrTransportWriteFailed = errors.New("transport write failed")
	// ErrInvalidConfig is returned before any byte is written
	ErrInvalidConfig = errors.New("invalid printer configuration")
	// ErrClosed is returned for calls after Close
	ErrClosed = errors.New("printer controller closed")
)

// CommandError identifies the command that was in flight when a write failed.
// The printer may have received a prefix of the sequence.
type CommandError struct {
	Command string
	Written int
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: command %s (wrote %d bytes): %v", ErrTransportWriteFailed, e.Command, e.Written, e.Err)
}

// Unwrap exposes both the sentinel and the transport error
func (e *CommandError) Unwrap() []error {
	return []error{ErrTransportWriteFailed, e.Err}
}

// FailedCommand returns the command name carried by err, if any
func FailedCommand(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Command
	}
	return ""
}
