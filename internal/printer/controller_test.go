package printer_test

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thermal-printer/internal/printer"
	"thermal-printer/internal/printer/printertest"
)

func TestNewWritesInitSequence(t *testing.T) {
	device := &printertest.Device{}

	_, err := printer.New(device, printer.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []byte{27, 64, 27, 55, 7, 80, 2, 18, 35, 255}, device.Bytes())
}

func TestNewHeatingParameters(t *testing.T) {
	testCases := []struct {
		name    string
		heating printer.HeatingConfig
		density printer.DensityConfig
		want    []byte
	}{
		{"Zeros", printer.HeatingConfig{}, printer.DensityConfig{}, []byte{27, 64, 27, 55, 0, 0, 0, 18, 35, 0}},
		{"Max", printer.HeatingConfig{HeatingDots: 255, HeatTime: 255, HeatInterval: 255}, printer.DensityConfig{Density: 15, BreakTime: 15}, []byte{27, 64, 27, 55, 255, 255, 255, 18, 35, 255}},
		{"Mixed", printer.HeatingConfig{HeatingDots: 20, HeatTime: 200, HeatInterval: 250}, printer.DensityConfig{Density: 10, BreakTime: 2}, []byte{27, 64, 27, 55, 20, 200, 250, 18, 35, 0xA2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			device := &printertest.Device{}
			cfg := printer.Config{Heating: tc.heating, Density: tc.density}

			_, err := printer.New(device, cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, device.Bytes())
			assert.Equal(t, printertest.InitSequence(cfg), device.Bytes())
		})
	}
}

func TestNewRejectsDensityOutOfRangeBeforeWriting(t *testing.T) {
	for _, density := range []printer.DensityConfig{
		{Density: 16, BreakTime: 0},
		{Density: 0, BreakTime: 16},
	} {
		device := &printertest.Device{}
		_, err := printer.New(device, printer.Config{Density: density}, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, printer.ErrInvalidConfig)
		assert.Empty(t, device.Bytes())
	}
}

func TestNewInitWriteFailure(t *testing.T) {
	device := &printertest.Device{FailOnWrite: 2}

	_, err := printer.New(device, printer.DefaultConfig(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)
	assert.ErrorIs(t, err, printertest.ErrInjected)
	assert.Equal(t, "print_settings", printer.FailedCommand(err))
}

func TestDial(t *testing.T) {
	t.Run("OpensAtFixedBaudRate", func(t *testing.T) {
		opener := &printertest.Opener{Device: &printertest.Device{}}

		c, err := printer.Dial(opener, printer.DefaultPort, printer.DefaultConfig(), zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, c)

		assert.Equal(t, "/dev/ttyAMA0", opener.Path)
		assert.Equal(t, 19200, opener.BaudRate)
		assert.Equal(t, printertest.InitSequence(printer.DefaultConfig()), opener.Device.Bytes())
	})

	t.Run("OpenFailure", func(t *testing.T) {
		opener := &printertest.Opener{Err: errors.New("no such file or directory")}

		c, err := printer.Dial(opener, "/dev/missing", printer.DefaultConfig(), zap.NewNop())
		assert.Nil(t, c)
		require.Error(t, err)
		assert.ErrorIs(t, err, printer.ErrTransportUnavailable)
		assert.Contains(t, err.Error(), "/dev/missing")
	})

	t.Run("InitFailureClosesDevice", func(t *testing.T) {
		device := &printertest.Device{FailOnWrite: 1}
		opener := &printertest.Opener{Device: device}

		_, err := printer.Dial(opener, printer.DefaultPort, printer.DefaultConfig(), zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)
		assert.True(t, device.IsClosed())
	})
}

func TestSimpleCommands(t *testing.T) {
	testCases := []struct {
		name string
		call func(c *printer.Controller) error
		want []byte
	}{
		{"Offline", (*printer.Controller).Offline, []byte{27, 61, 0}},
		{"Online", (*printer.Controller).Online, []byte{27, 61, 1}},
		{"Reset", (*printer.Controller).Reset, []byte{27, 64}},
		{"Linefeed", (*printer.Controller).Linefeed, []byte{10}},
		{"BoldOn", (*printer.Controller).BoldOn, []byte{27, 69, 1}},
		{"BoldOff", (*printer.Controller).BoldOff, []byte{27, 69, 0}},
		{"DoubleWidthOn", (*printer.Controller).DoubleWidthOn, []byte{27, 14}},
		{"DoubleWidthOff", (*printer.Controller).DoubleWidthOff, []byte{27, 20}},
		{"UpDownOn", (*printer.Controller).UpDownOn, []byte{27, 123, 1}},
		{"UpDownOff", (*printer.Controller).UpDownOff, []byte{27, 123, 0}},
		{"InverseOn", (*printer.Controller).InverseOn, []byte{29, 66, 1}},
		{"InverseOff", (*printer.Controller).InverseOff, []byte{27, 66, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, device, err := printertest.NewController(printer.DefaultConfig())
			require.NoError(t, err)

			require.NoError(t, tc.call(c))
			assert.Equal(t, tc.want, device.Bytes())
		})
	}
}

func TestOfflineTwiceEmitsTwice(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Offline())
	require.NoError(t, c.Offline())

	assert.Equal(t, []byte{27, 61, 0, 27, 61, 0}, device.Bytes())
}

func TestJustify(t *testing.T) {
	testCases := []struct {
		position printer.Justification
		code     byte
	}{
		{printer.JustifyLeft, 0},
		{printer.JustifyCenter, 1},
		{printer.JustifyRight, 2},
	}

	for _, tc := range testCases {
		t.Run(string(tc.position), func(t *testing.T) {
			c, device, err := printertest.NewController(printer.DefaultConfig())
			require.NoError(t, err)

			require.NoError(t, c.Justify(tc.position))
			assert.Equal(t, []byte{27, 97, tc.code}, device.Bytes())
		})
	}
}

func TestJustifyRejectsUnknownPosition(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	err = c.Justify(printer.Justification("middle"))
	assert.ErrorIs(t, err, printer.ErrInvalidConfig)
	assert.Empty(t, device.Bytes())

	_, ok := printer.Justification("").Code()
	assert.False(t, ok)
}

func TestParseJustification(t *testing.T) {
	j, err := printer.ParseJustification("center")
	require.NoError(t, err)
	assert.Equal(t, printer.JustifyCenter, j)

	_, err = printer.ParseJustification("middle")
	assert.ErrorIs(t, err, printer.ErrInvalidConfig)
}

func TestPrintTextIsUnmodified(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	text := []byte{'A', 27, 0, 255, '\n'}
	require.NoError(t, c.PrintText(text))
	assert.Equal(t, text, device.Bytes())

	device.Reset()
	require.NoError(t, c.PrintText(nil))
	assert.Equal(t, 0, device.Writes())
}

func TestBoldScope(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)

		err = c.Bold(func(s *printer.Session) error {
			return s.PrintText([]byte("HI"))
		})
		require.NoError(t, err)
		assert.Equal(t, []byte{27, 69, 1, 'H', 'I', 27, 69, 0}, device.Bytes())
	})

	t.Run("ScopeErrorStillTurnsOff", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)

		scopeErr := errors.New("render failed")
		err = c.Bold(func(s *printer.Session) error {
			return scopeErr
		})
		assert.ErrorIs(t, err, scopeErr)
		assert.Equal(t, []byte{27, 69, 1, 27, 69, 0}, device.Bytes())
	})

	t.Run("ScopePanicStillTurnsOff", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)

		assert.Panics(t, func() {
			_ = c.Bold(func(s *printer.Session) error {
				panic("boom")
			})
		})
		assert.Equal(t, []byte{27, 69, 1, 27, 69, 0}, device.Bytes())

		// the lock was released by the panic path
		require.NoError(t, c.Linefeed())
	})

	t.Run("OnFailureSkipsScope", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)
		device.FailOnWrite = 1

		ran := false
		err = c.Bold(func(s *printer.Session) error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)
		assert.Equal(t, "bold_on", printer.FailedCommand(err))
		assert.False(t, ran)
	})

	t.Run("OffFailureReported", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)
		device.FailOnWrite = 3

		err = c.Bold(func(s *printer.Session) error {
			return s.PrintText([]byte("x"))
		})
		assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)
		assert.Equal(t, "bold_off", printer.FailedCommand(err))
	})

	t.Run("ScopeErrorWinsOverOffError", func(t *testing.T) {
		c, device, err := printertest.NewController(printer.DefaultConfig())
		require.NoError(t, err)
		device.FailOnWrite = 2
		err = c.Bold(func(s *printer.Session) error {
			return s.PrintText([]byte("x"))
		})
		assert.Equal(t, "print_text", printer.FailedCommand(err))
		assert.Equal(t, []byte{27, 69, 1, 27, 69, 0}, device.Bytes())
	})
}

func TestDoubleWidthScope(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	scopeErr := errors.New("nope")
	err = c.DoubleWidth(func(s *printer.Session) error {
		if err := s.PrintText([]byte("W")); err != nil {
			return err
		}
		return scopeErr
	})
	assert.ErrorIs(t, err, scopeErr)
	assert.Equal(t, []byte{27, 14, 'W', 27, 20}, device.Bytes())
}

func TestNestedScopes(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	err = c.Bold(func(s *printer.Session) error {
		return s.DoubleWidth(func(s *printer.Session) error {
			return s.PrintText([]byte("A"))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{27, 69, 1, 27, 14, 'A', 27, 20, 27, 69, 0}, device.Bytes())
}

func TestShortWriteIsFailure(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)
	device.FailOnWrite = 1
	device.ShortWrite = true

	err = c.Justify(printer.JustifyRight)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)

	var cmdErr *printer.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "justify", cmdErr.Command)
	assert.Equal(t, 1, cmdErr.Written)
}

func TestEndToEndScenario(t *testing.T) {
	device := &printertest.Device{}
	c, err := printer.New(device, printer.DefaultConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, c.Justify(printer.JustifyCenter))
	require.NoError(t, c.PrintText([]byte("HI")))
	require.NoError(t, c.Linefeed())

	assert.Equal(t, []byte{
		27, 64, 27, 55, 7, 80, 2, 18, 35, 255,
		27, 97, 1,
		'H', 'I',
		10,
	}, device.Bytes())
}

func TestConcurrentScopesNeverInterleave(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = c.Bold(func(s *printer.Session) error {
					return s.PrintText([]byte("b"))
				})
				return
			}
			_ = c.Justify(printer.JustifyRight)
		}(i)
	}
	wg.Wait()

	bold := []byte{27, 69, 1, 'b', 27, 69, 0}
	justify := []byte{27, 97, 2}
	stream := device.Bytes()
	for len(stream) > 0 {
		switch {
		case len(stream) >= len(bold) && string(stream[:len(bold)]) == string(bold):
			stream = stream[len(bold):]
		case len(stream) >= len(justify) && string(stream[:len(justify)]) == string(justify):
			stream = stream[len(justify):]
		default:
			t.Fatalf("interleaved command stream: %v", stream)
		}
	}
}

func TestClose(t *testing.T) {
	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.True(t, device.IsClosed())
	assert.ErrorIs(t, c.Online(), printer.ErrClosed)

	// second close is a no-op
	assert.NoError(t, c.Close())
}
