package spi

import (
	"fmt"
	"image"

	"github.com/coreman2200/apa102"
	"periph.io/x/extra/devices/screen"
)

// Console draws APA102 frames on the terminal. It stands in for a strip when
// no SPI port is available.
type Console struct {
	d     *screen.Dev
	order apa102.Order
	im    *image.NRGBA
}

func NewConsole(numLED int, order apa102.Order) *Console {
	return &Console{
		d:     screen.New(numLED),
		order: order,
		im:    image.NewNRGBA(image.Rect(0, 0, numLED, 1)),
	}
}

// Write implements io.Writer.
func (c *Console) Write(frame []byte) (int, error) {
	px, err := apa102.Decode(frame, c.order)
	if err != nil {
		return 0, err
	}
	rgb := toRGB(nil, px)
	for x := 0; x < c.im.Rect.Max.X && 3*x+2 < len(rgb); x++ {
		i := c.im.PixOffset(x, 0)
		copy(c.im.Pix[i:i+3], rgb[3*x:3*x+3])
		c.im.Pix[i+3] = 255
	}
	if err := c.d.Draw(c.d.Bounds(), c.im, image.Point{}); err != nil {
		return 0, err
	}
	fmt.Printf("\n")
	return len(frame), nil
}

func (c *Console) Close() error {
	return c.d.Halt()
}

func (c *Console) String() string {
	return "console"
}
