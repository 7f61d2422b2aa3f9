package spi

import (
	"errors"
	"fmt"
	"io"

	"github.com/coreman2200/apa102"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Output drivers.
const (
	DriverSPI     = "spi"
	DriverNRZ     = "nrz"
	DriverConsole = "console"
	DriverNone    = "none"
)

var ErrUnknownDriver = errors.New("spi: unknown driver")

// Options select and configure the frame sink for a strip.
type Options struct {
	Driver string
	Dev    string // SPI port name, "" for the first one
	Freq   physic.Frequency
	NumLED int
	Order  apa102.Order
}

// Output is where a strip's frames end up.
type Output interface {
	io.WriteCloser
	String() string
}

type nopOutput struct{}

func (nopOutput) Write(b []byte) (int, error) { return len(b), nil }
func (nopOutput) Close() error                { return nil }
func (nopOutput) String() string              { return DriverNone }

// Open builds the Output for o. A SPI port that cannot be found falls back
// to the console, like a headless run on a desktop would want.
func Open(o Options) (Output, error) {
	switch o.Driver {
	case DriverNone:
		return nopOutput{}, nil
	case DriverConsole:
		return NewConsole(o.NumLED, o.Order), nil
	case DriverSPI, DriverNRZ, "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, o.Driver)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: host init: %w", err)
	}
	if o.Driver == DriverNRZ {
		p, err := spireg.Open(o.Dev)
		if err != nil {
			log.Warn().Err(err).Str("dev", o.Dev).Msg("no SPI port for nrz mirror; printing at the console")
			return NewConsole(o.NumLED, o.Order), nil
		}
		m, err := NewNRZMirror(p, o.NumLED, o.Order)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		return &closeBoth{Output: m, port: p}, nil
	}

	port, err := OpenPort(o.Dev, o.Freq)
	if err != nil {
		log.Warn().Err(err).Str("dev", o.Dev).Msg("failed to find a SPI port; printing at the console")
		return NewConsole(o.NumLED, o.Order), nil
	}
	log.Debug().Str("port", port.String()).Msg("spi port ready")
	return port, nil
}

type closeBoth struct {
	Output
	port io.Closer
}

func (c *closeBoth) Close() error {
	err := c.Output.Close()
	if cerr := c.port.Close(); err == nil {
		err = cerr
	}
	return err
}
