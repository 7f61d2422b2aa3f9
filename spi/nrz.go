package spi

import (
	"fmt"

	"github.com/coreman2200/apa102"
	"github.com/coreman2200/apa102/model"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// NRZFreq is the SPI clock used to bit-bang WS281x timing.
const NRZFreq = 2500 * physic.KiloHertz

// NRZMirror decodes APA102 frames and replays them on a WS281x (NRZ) strip.
// The per-LED brightness is folded into the colour since NRZ LEDs have no
// brightness field.
type NRZMirror struct {
	d     *nrzled.Dev
	order apa102.Order
	rgb   []byte
}

// NewNRZMirror opens an nrzled device of numLED pixels on p. order must match
// the strip whose frames are mirrored.
func NewNRZMirror(p spi.Port, numLED int, order apa102.Order) (*NRZMirror, error) {
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: numLED,
		Channels:  3,
		Freq:      NRZFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("spi: nrzled: %w", err)
	}
	return &NRZMirror{d: d, order: order, rgb: make([]byte, 0, numLED*3)}, nil
}

// Write implements io.Writer. It returns len(frame) on success.
func (m *NRZMirror) Write(frame []byte) (int, error) {
	px, err := apa102.Decode(frame, m.order)
	if err != nil {
		return 0, err
	}
	m.rgb = toRGB(m.rgb[:0], px)
	if _, err := m.d.Write(m.rgb); err != nil {
		return 0, fmt.Errorf("spi: nrzled write: %w", err)
	}
	return len(frame), nil
}

// Close turns the NRZ strip off.
func (m *NRZMirror) Close() error {
	return m.d.Halt()
}

func (m *NRZMirror) String() string {
	return m.d.String()
}

func toRGB(dst []byte, px []apa102.Pixel) []byte {
	for _, p := range px {
		c := model.Combine(p.R, p.G, p.B).Scaled(p.Brightness)
		dst = append(dst, c.GetR(), c.GetG(), c.GetB())
	}
	return dst
}
