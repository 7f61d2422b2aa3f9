package apa102

import (
	"fmt"
	"image"
	"image/color"

	"github.com/coreman2200/apa102/model"
	"periph.io/x/conn/v3/display"
)

// String implements conn.Resource.
func (s *Strip) String() string {
	return fmt.Sprintf("apa102{%d, %s}", s.numLED, s.order)
}

// Halt implements conn.Resource. It turns every LED off.
func (s *Strip) Halt() error {
	s.Clear()
	return s.Show()
}

// ColorModel implements display.Drawer. There's no surprise, it is
// color.NRGBAModel.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.numLED, 1)
}

// Draw implements display.Drawer. Only the first row of src is used; the
// alpha channel is premultiplied away. The frame is sent right away.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	if srcR.Empty() {
		return nil
	}
	s.mu.Lock()
	hdr := s.header(nil)
	for x := srcR.Min.X; x < srcR.Max.X; x++ {
		c := model.FromColor(src.At(x, srcR.Min.Y))
		s.put(r.Min.X+x-srcR.Min.X, hdr, c.GetR(), c.GetG(), c.GetB())
	}
	s.mu.Unlock()
	return s.Show()
}

// Image renders the buffer as a one pixel high image, each pixel's
// brightness folded into its colour.
func (s *Strip) Image() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	im := image.NewNRGBA(image.Rect(0, 0, s.numLED, 1))
	for x := 0; x < s.numLED; x++ {
		p := s.leds[x*BytesPerLED:]
		c := model.Combine(p[s.order[Red]], p[s.order[Green]], p[s.order[Blue]])
		im.SetNRGBA(x, 0, c.Scaled(p[0]&brightnessMask).NRGBA())
	}
	return im
}

var _ display.Drawer = &Strip{}
