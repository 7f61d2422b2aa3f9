package apa102

import "github.com/coreman2200/apa102/model"

// SetPixel sets LED i to the given colour. The optional brightness (0..31,
// default 31) is scaled by the global brightness. An out of range index is
// ignored.
func (s *Strip) SetPixel(i int, r, g, b uint8, brightness ...uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.numLED {
		return
	}
	s.put(i, s.header(brightness), r, g, b)
}

// SetPixelRGB is SetPixel with a colour packed as 0xRRGGBB.
func (s *Strip) SetPixelRGB(i int, rgb uint32, brightness ...uint8) {
	r, g, b := model.NewColor(rgb).RGB()
	s.SetPixel(i, r, g, b, brightness...)
}

// SetRange sets LEDs start (inclusive) to end (exclusive). Nothing happens
// when start is negative, end is past the strip or start > end.
func (s *Strip) SetRange(start, end int, r, g, b uint8, brightness ...uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// end is exclusive, so end == numLED reaches the last LED.
	if start < 0 || end > s.numLED || start > end {
		return
	}
	hdr := s.header(brightness)
	for i := start; i < end; i++ {
		s.put(i, hdr, r, g, b)
	}
}

// SetRangeRGB is SetRange with a colour packed as 0xRRGGBB.
func (s *Strip) SetRangeRGB(start, end int, rgb uint32, brightness ...uint8) {
	r, g, b := model.NewColor(rgb).RGB()
	s.SetRange(start, end, r, g, b, brightness...)
}

// SetAll sets every LED.
func (s *Strip) SetAll(r, g, b uint8, brightness ...uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hdr := s.header(brightness)
	for i := 0; i < s.numLED; i++ {
		s.put(i, hdr, r, g, b)
	}
}

// SetAllRGB is SetAll with a colour packed as 0xRRGGBB.
func (s *Strip) SetAllRGB(rgb uint32, brightness ...uint8) {
	r, g, b := model.NewColor(rgb).RGB()
	s.SetAll(r, g, b, brightness...)
}

// Clear turns every LED black. Header bytes, and so brightness, are kept.
func (s *Strip) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leds {
		if i%BytesPerLED != 0 {
			s.leds[i] = 0
		}
	}
}

// Rotate shifts the pixels so LED i shows what LED i+n showed before,
// wrapping around. Negative n rotates the other way.
func (s *Strip) Rotate(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.numLED == 0 {
		return
	}
	n %= s.numLED
	if n < 0 {
		n += s.numLED
	}
	if n == 0 {
		return
	}
	k := n * BytesPerLED
	rotated := make([]byte, 0, len(s.leds))
	rotated = append(rotated, s.leds[k:]...)
	rotated = append(rotated, s.leds[:k]...)
	copy(s.leds, rotated)
}

// PixelColor returns the colour of LED i. ok is false when i is out of range.
func (s *Strip) PixelColor(i int) (r, g, b uint8, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.numLED {
		return 0, 0, 0, false
	}
	p := s.leds[i*BytesPerLED:]
	return p[s.order[Red]], p[s.order[Green]], p[s.order[Blue]], true
}

// PixelColorRGB returns the colour of LED i packed as 0xRRGGBB.
func (s *Strip) PixelColorRGB(i int) (uint32, bool) {
	r, g, b, ok := s.PixelColor(i)
	if !ok {
		return 0, false
	}
	return CombineColor(r, g, b), true
}

// PixelColorString returns the colour of LED i as "#RRGGBB".
func (s *Strip) PixelColorString(i int) (string, bool) {
	r, g, b, ok := s.PixelColor(i)
	if !ok {
		return "", false
	}
	return model.Combine(r, g, b).Hex(), true
}

// PixelBrightness returns the 5-bit brightness stored in LED i's header.
func (s *Strip) PixelBrightness(i int) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.numLED {
		return 0, false
	}
	return s.leds[i*BytesPerLED] & brightnessMask, true
}

// CombineColor packs three channels as 0xRRGGBB.
func CombineColor(r, g, b uint8) uint32 {
	return model.Combine(r, g, b).Color()
}

// Wheel returns a colour from a wheel cycling green -> red -> blue -> green,
// packed as 0xRRGGBB.
func Wheel(pos uint8) uint32 {
	return model.Wheel(pos).Color()
}
