// internal/printer/session.go
package printer

import (
	"io"

	"go.uber.org/zap"
)

// Session is the command surface available while the controller lock is held.
// It is only valid inside Controller.Do and the scoped helpers.
type Session struct {
	device Device
	logger *zap.Logger
}

// emit is the single path from any command to the device
func (s *Session) emit(command Command) error {
	n, err := s.device.Write(command.Bytes)
	if err == nil && n != len(command.Bytes) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.logger.Error("Printer command failed",
			zap.String("command", command.Name),
			zap.Int("bytes_written", n),
			zap.Int("bytes_expected", len(command.Bytes)),
			zap.Error(err),
		)
		return &CommandError{Command: command.Name, Written: n, Err: err}
	}

	s.logger.Debug("Printer command sent",
		zap.String("command", command.Name),
		zap.Binary("data", command.Bytes),
	)
	return nil
}

// Mode and control commands, one per opcode.

func (s *Session) Offline() error        { return s.emit(CmdOffline) }
func (s *Session) Online() error         { return s.emit(CmdOnline) }
func (s *Session) Reset() error          { return s.emit(CmdInitialize) }
func (s *Session) Linefeed() error       { return s.emit(CmdLinefeed) }
func (s *Session) BoldOn() error         { return s.emit(CmdBoldOn) }
func (s *Session) BoldOff() error        { return s.emit(CmdBoldOff) }
func (s *Session) DoubleWidthOn() error  { return s.emit(CmdDoubleWidthOn) }
func (s *Session) DoubleWidthOff() error { return s.emit(CmdDoubleWidthOff) }
func (s *Session) UpDownOn() error       { return s.emit(CmdUpDownOn) }
func (s *Session) UpDownOff() error      { return s.emit(CmdUpDownOff) }
func (s *Session) InverseOn() error      { return s.emit(CmdInverseOn) }
func (s *Session) InverseOff() error     { return s.emit(CmdInverseOff) }

// Justify sets the alignment of subsequent text
func (s *Session) Justify(j Justification) error {
	command, err := JustifyCommand(j)
	if err != nil {
		return err
	}
	return s.emit(command)
}

// PrintText writes text unmodified. An empty text writes nothing.
func (s *Session) PrintText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	return s.emit(Command{Name: "print_text", Bytes: text})
}

// Bold sends bold on, runs fn, then bold off on every exit path
func (s *Session) Bold(fn func(s *Session) error) error {
	return s.Scoped(s.BoldOn, s.BoldOff, fn)
}

// DoubleWidth sends double width on, runs fn, then double width off on every exit path
func (s *Session) DoubleWidth(fn func(s *Session) error) error {
	return s.Scoped(s.DoubleWidthOn, s.DoubleWidthOff, fn)
}

// Scoped runs fn between on and off. If on fails, fn is not run and off is
// not sent. Otherwise off is sent even when fn fails or panics; the error
// from fn takes precedence over the error from off.
func (s *Session) Scoped(on, off func() error, fn func(s *Session) error) (err error) {
	if err := on(); err != nil {
		return err
	}
	defer func() {
		if offErr := off(); offErr != nil && err == nil {
			err = offErr
		}
	}()

	return fn(s)
}
