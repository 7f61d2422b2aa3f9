package model

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// MaxBrightness is the largest value the 5-bit APA102 brightness field holds.
const MaxBrightness uint8 = 31

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

const colorMask uint32 = 0xFFFFFF

var ErrBadHex = errors.New("model: color must be 6 hex digits")

// ColorVal is a 24 bit colour packed as 0xRRGGBB.
type ColorVal struct {
	val uint32
}

func NewColor(c uint32) ColorVal {
	return ColorVal{val: c & colorMask}
}

// Combine packs three channels into a ColorVal.
func Combine(r, g, b uint8) ColorVal {
	return ColorVal{val: uint32(r)<<RED_OFFSET | uint32(g)<<GREEN_OFFSET | uint32(b)<<BLUE_OFFSET}
}

// ParseHex accepts "#RRGGBB", "0xRRGGBB" or "RRGGBB".
func ParseHex(s string) (ColorVal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s) != 6 {
		return ColorVal{}, fmt.Errorf("%w: %q", ErrBadHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ColorVal{}, fmt.Errorf("%w: %q", ErrBadHex, s)
	}
	return NewColor(uint32(v)), nil
}

func (c ColorVal) Color() uint32 {
	return c.val
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (c *ColorVal) SetR(r uint8) {
	c.val = setcolor(c.val, r, RED_OFFSET)
}
func (c *ColorVal) SetG(g uint8) {
	c.val = setcolor(c.val, g, GREEN_OFFSET)
}
func (c *ColorVal) SetB(b uint8) {
	c.val = setcolor(c.val, b, BLUE_OFFSET)
}

func (c ColorVal) GetR() uint8 {
	return getcolor(c.val, RED_OFFSET)
}
func (c ColorVal) GetG() uint8 {
	return getcolor(c.val, GREEN_OFFSET)
}
func (c ColorVal) GetB() uint8 {
	return getcolor(c.val, BLUE_OFFSET)
}

// RGB returns the three channels.
func (c ColorVal) RGB() (r, g, b uint8) {
	return c.GetR(), c.GetG(), c.GetB()
}

// Hex formats the colour as "#RRGGBB".
func (c ColorVal) Hex() string {
	return fmt.Sprintf("#%06X", c.val&colorMask)
}

// Scaled folds a 5-bit brightness into the channels, the way the LED would
// render it.
func (c ColorVal) Scaled(brightness uint8) ColorVal {
	if brightness > MaxBrightness {
		brightness = MaxBrightness
	}
	scale := func(v uint8) uint8 {
		return uint8(uint32(v) * uint32(brightness) / uint32(MaxBrightness))
	}
	return Combine(scale(c.GetR()), scale(c.GetG()), scale(c.GetB()))
}

// NRGBA converts to an opaque image colour.
func (c ColorVal) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.GetR(), G: c.GetG(), B: c.GetB(), A: 255}
}

// FromColor converts any image colour, dropping alpha after premultiplying.
func FromColor(cc color.Color) ColorVal {
	n := color.NRGBAModel.Convert(cc).(color.NRGBA)
	if n.A == 255 {
		return Combine(n.R, n.G, n.B)
	}
	a := uint32(n.A)
	return Combine(uint8(uint32(n.R)*a/255), uint8(uint32(n.G)*a/255), uint8(uint32(n.B)*a/255))
}

// Wheel returns a colour from a wheel that cycles green, red, blue and back
// to green as pos goes from 0 to 255.
func Wheel(pos uint8) ColorVal {
	switch {
	case pos < 85:
		p := pos * 3
		return Combine(p, 255-p, 0)
	case pos < 170:
		p := (pos - 85) * 3
		return Combine(255-p, 0, p)
	default:
		p := (pos - 170) * 3
		return Combine(0, p, 255-p)
	}
}
