package apa102

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/coreman2200/apa102/model"
)

const (
	// MaxBrightness is the highest global or per-pixel brightness.
	MaxBrightness = model.MaxBrightness
	// BytesPerLED is the size of one LED frame.
	BytesPerLED = 4

	ledStart       byte = 0xE0 // three "1" bits followed by 5 brightness bits
	brightnessMask byte = 0x1F
	startFrameLen       = 4
)

// ErrInvalidLength is returned by New for a negative LED count.
var ErrInvalidLength = errors.New("apa102: number of LEDs must not be negative")

// Option configures a Strip in New.
type Option func(*Strip)

// WithGlobalBrightness sets the brightness every pixel brightness is scaled
// against. Values above MaxBrightness are clamped.
func WithGlobalBrightness(b uint8) Option {
	return func(s *Strip) {
		if b > MaxBrightness {
			b = MaxBrightness
		}
		s.brightness = b
	}
}

// WithOrder sets the channel order from a string such as "RGB" or "bgr".
// See ParseOrder.
func WithOrder(order string) Option {
	return func(s *Strip) {
		s.order = ParseOrder(order)
	}
}

// Strip is a handle to a string of APA102 LEDs. It is safe for concurrent
// use.
type Strip struct {
	mu         sync.Mutex
	w          io.Writer
	leds       []byte
	order      Order
	brightness uint8
	numLED     int
}

// New allocates the frame buffer for numLED pixels. w receives whole frames
// on Show; when w is nil Show does nothing.
func New(numLED int, w io.Writer, opts ...Option) (*Strip, error) {
	if numLED < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, numLED)
	}
	s := &Strip{
		w:          w,
		numLED:     numLED,
		order:      DefaultOrder,
		brightness: MaxBrightness,
		leds:       make([]byte, numLED*BytesPerLED),
	}
	for _, o := range opts {
		o(s)
	}
	for i := 0; i < len(s.leds); i += BytesPerLED {
		s.leds[i] = ledStart
	}
	return s, nil
}

// NumLED is the number of pixels on the strip.
func (s *Strip) NumLED() int {
	return s.numLED
}

// GlobalBrightness is the strip-wide brightness, 0 to MaxBrightness.
func (s *Strip) GlobalBrightness() uint8 {
	return s.brightness
}

// Order returns the channel offsets in use.
func (s *Strip) Order() Order {
	return s.order
}

// Writer returns the sink Show writes to, possibly nil.
func (s *Strip) Writer() io.Writer {
	return s.w
}

// header computes the header byte for a pixel brightness.
func (s *Strip) header(brightness []uint8) byte {
	b := MaxBrightness
	if len(brightness) > 0 {
		b = brightness[0]
	}
	if b > MaxBrightness {
		b = MaxBrightness
	}
	scaled := uint16(b) * uint16(s.brightness) / uint16(MaxBrightness)
	return (byte(scaled) & brightnessMask) | ledStart
}

// put writes one LED frame. The caller holds s.mu.
func (s *Strip) put(i int, hdr byte, r, g, b uint8) {
	p := s.leds[i*BytesPerLED : (i+1)*BytesPerLED]
	p[0] = hdr
	p[s.order[Red]] = r
	p[s.order[Green]] = g
	p[s.order[Blue]] = b
}
