// internal/printer/commands.go
package printer

import "fmt"

// Command prefixes of the printer's native protocol
const (
	ESC byte = 27 // 0x1B
	GS  byte = 29 // 0x1D
	DC2 byte = 18 // 0x12
	LF  byte = 10 // 0x0A
)

// Opcodes following ESC / GS / DC2
const (
	opInitialize   byte = 64  // ESC @
	opPrintSetting byte = 55  // ESC 7 n1 n2 n3
	opDensity      byte = 35  // DC2 # n
	opOnline       byte = 61  // ESC = n
	opJustify      byte = 97  // ESC a n
	opBold         byte = 69  // ESC E n
	opDoubleOn     byte = 14  // ESC SO
	opDoubleOff    byte = 20  // ESC DC4
	opUpDown       byte = 123 // ESC { n
	opInverse      byte = 66  // GS B n / ESC B n
)

// BaudRate is the fixed line speed of the printer's serial interface
const BaudRate = 19200

// DefaultPort is the serial device of the printer header on a Raspberry Pi
const DefaultPort = "/dev/ttyAMA0"

// Heating defaults
const (
	DefaultHeatingDots  uint8 = 7
	DefaultHeatTime     uint8 = 80
	DefaultHeatInterval uint8 = 2
)

// Print density defaults. Density is 50% + 5% * n, break time is n * 250us.
const (
	DefaultPrintDensity   uint8 = 15
	DefaultPrintBreakTime uint8 = 15
	maxNibble             uint8 = 15
)

// Command is a named, fixed byte sequence sent to the printer
type Command struct {
	Name  string
	Bytes []byte
}

func cmd(name string, b ...byte) Command {
	return Command{Name: name, Bytes: b}
}

// Fixed command sequences
var (
	CmdInitialize     = cmd("initialize", ESC, opInitialize)
	CmdOffline        = cmd("offline", ESC, opOnline, 0)
	CmdOnline         = cmd("online", ESC, opOnline, 1)
	CmdLinefeed       = cmd("linefeed", LF)
	CmdBoldOn         = cmd("bold_on", ESC, opBold, 1)
	CmdBoldOff        = cmd("bold_off", ESC, opBold, 0)
	CmdDoubleWidthOn  = cmd("double_width_on", ESC, opDoubleOn)
	CmdDoubleWidthOff = cmd("double_width_off", ESC, opDoubleOff)
	CmdUpDownOn       = cmd("updown_on", ESC, opUpDown, 1)
	CmdUpDownOff      = cmd("updown_off", ESC, opUpDown, 0)
	// Inverse on uses the GS family while off uses ESC. Kept exactly as the
	// hardware has been driven so far; unverified against the vendor manual.
	CmdInverseOn  = cmd("inverse_on", GS, opInverse, 1)
	CmdInverseOff = cmd("inverse_off", ESC, opInverse, 0)
)

// PrintSettingsCommand builds ESC 7 with the heating parameters
func PrintSettingsCommand(h HeatingConfig) Command {
	return cmd("print_settings", ESC, opPrintSetting, h.HeatingDots, h.HeatTime, h.HeatInterval)
}

// PrintDensityCommand builds DC2 # with the packed density byte
func PrintDensityCommand(d DensityConfig) Command {
	return cmd("print_density", DC2, opDensity, d.Encode())
}

// JustifyCommand builds ESC a for the given position. Unknown positions are
// rejected with ErrInvalidConfig.
func JustifyCommand(j Justification) (Command, error) {
	code, ok := j.Code()
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown justification %q", ErrInvalidConfig, string(j))
	}
	return cmd("justify", ESC, opJustify, code), nil
}

// HeatingConfig holds the print head parameters sent once at startup
type HeatingConfig struct {
	HeatingDots  uint8 `json:"heating_dots"`
	HeatTime     uint8 `json:"heat_time"`
	HeatInterval uint8 `json:"heat_interval"`
}

// DefaultHeatingConfig returns 7/80/2
func DefaultHeatingConfig() HeatingConfig {
	return HeatingConfig{
		HeatingDots:  DefaultHeatingDots,
		HeatTime:     DefaultHeatTime,
		HeatInterval: DefaultHeatInterval,
	}
}

// DensityConfig holds two 4-bit tuning values packed into one byte
type DensityConfig struct {
	Density   uint8 `json:"density"`
	BreakTime uint8 `json:"break_time"`
}

// DefaultDensityConfig returns density 15, break time 15
func DefaultDensityConfig() DensityConfig {
	return DensityConfig{
		Density:   DefaultPrintDensity,
		BreakTime: DefaultPrintBreakTime,
	}
}

// Validate checks both values fit in a nibble
func (d DensityConfig) Validate() error {
	if d.Density > maxNibble {
		return fmt.Errorf("%w: print density %d out of range [0,%d]", ErrInvalidConfig, d.Density, maxNibble)
	}
	if d.BreakTime > maxNibble {
		return fmt.Errorf("%w: print break time %d out of range [0,%d]", ErrInvalidConfig, d.BreakTime, maxNibble)
	}
	return nil
}

// Encode packs density into the upper nibble and break time into the lower one
func (d DensityConfig) Encode() byte {
	return d.Density<<4 | d.BreakTime
}

// Justification is the horizontal alignment of subsequent text
type Justification string

const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
)

// Code returns the ESC a argument. Left=0, Center=1, Right=2. ok is false
// for any other value.
func (j Justification) Code() (code byte, ok bool) {
	switch j {
	case JustifyLeft:
		return 0, true
	case JustifyCenter:
		return 1, true
	case JustifyRight:
		return 2, true
	default:
		return 0, false
	}
}

// ParseJustification accepts left, center or right
func ParseJustification(s string) (Justification, error) {
	switch j := Justification(s); j {
	case JustifyLeft, JustifyCenter, JustifyRight:
		return j, nil
	default:
		return "", fmt.Errorf("%w: unknown justification %q", ErrInvalidConfig, s)
	}
}
