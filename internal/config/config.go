package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // periph port name, e.g. "/dev/spidev0.0" or "" for the first
	SpeedHz int64  `yaml:"speed_hz"` // e.g. 8000000
}

type Layout struct {
	Width      int  `yaml:"width"`  // LEDs per row
	Height     int  `yaml:"height"` // rows
	Serpentine bool `yaml:"serpentine"`
}

type Config struct {
	NumLED           int    `yaml:"num_led"`
	GlobalBrightness uint8  `yaml:"global_brightness"`
	Order            string `yaml:"order"`  // e.g. "RGB", "BGR"
	Driver           string `yaml:"driver"` // "spi" | "nrz" | "console" | "none"
	FPS              int    `yaml:"fps"`
	Addr             string `yaml:"addr"`

	SPI    SPI    `yaml:"spi,omitempty"`
	Layout Layout `yaml:"layout,omitempty"`
}

var ErrInvalid = errors.New("config: invalid")

// Default is what a bare run uses: a short strip at full brightness on the
// first SPI port.
func Default() *Config {
	return &Config{
		NumLED:           60,
		GlobalBrightness: 31,
		Order:            "RGB",
		Driver:           "spi",
		FPS:              30,
		Addr:             ":8080",
		SPI:              SPI{SpeedHz: 8000000},
	}
}

// Load reads a YAML file on top of Default, so missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports the first setting that cannot drive a strip.
func (c *Config) Validate() error {
	switch {
	case c.NumLED < 0:
		return fmt.Errorf("%w: num_led %d", ErrInvalid, c.NumLED)
	case c.GlobalBrightness > 31:
		return fmt.Errorf("%w: global_brightness %d > 31", ErrInvalid, c.GlobalBrightness)
	case c.FPS < 0:
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	case c.SPI.SpeedHz < 0:
		return fmt.Errorf("%w: spi.speed_hz %d", ErrInvalid, c.SPI.SpeedHz)
	case c.Layout.Width < 0 || c.Layout.Height < 0:
		return fmt.Errorf("%w: layout %dx%d", ErrInvalid, c.Layout.Width, c.Layout.Height)
	case c.Layout.Width*c.Layout.Height > c.NumLED:
		return fmt.Errorf("%w: layout %dx%d needs more than %d LEDs", ErrInvalid, c.Layout.Width, c.Layout.Height, c.NumLED)
	}
	switch c.Driver {
	case "spi", "nrz", "console", "none":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	return nil
}
