package apa102

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var errFrame = errors.New("apa102: malformed frame")

// Pixel is one decoded LED frame.
type Pixel struct {
	R, G, B    uint8
	Brightness uint8
}

// EndFrameLen is the number of zero bytes clocked out after the LED frames.
func EndFrameLen(numLED int) int {
	return (numLED + 15) / 16
}

// FrameLen is the length of a full frame for numLED pixels.
func FrameLen(numLED int) int {
	return startFrameLen + numLED*BytesPerLED + EndFrameLen(numLED)
}

// Frame returns the bytes Show sends: the start frame, every LED frame and
// the end frame.
func (s *Strip) Frame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Strip) frameLocked() []byte {
	out := make([]byte, FrameLen(s.numLED))
	copy(out[startFrameLen:], s.leds)
	return out
}

// Show sends the frame buffer to the writer. It is a no-op when the strip has
// no writer.
func (s *Strip) Show() error {
	_, err := s.ShowFrame()
	return err
}

// ShowFrame is Show that also returns the frame it sent. Without a writer the
// frame is returned unsent. The strip stays locked during the write, so frames
// reach the writer whole and in order.
func (s *Strip) ShowFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frameLocked()
	if s.w == nil {
		return f, nil
	}
	if _, err := s.w.Write(f); err != nil {
		return f, fmt.Errorf("apa102: write frame: %w", err)
	}
	return f, nil
}

// Decode parses a frame produced by Show back into pixels. The start frame
// must be present; trailing end frame bytes are ignored.
func Decode(frame []byte, order Order) ([]Pixel, error) {
	if len(frame) < startFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", errFrame, len(frame))
	}
	for _, b := range frame[:startFrameLen] {
		if b != 0 {
			return nil, fmt.Errorf("%w: missing start frame", errFrame)
		}
	}
	body := frame[startFrameLen:]
	var out []Pixel
	for len(body) >= BytesPerLED && body[0]&ledStart == ledStart {
		out = append(out, Pixel{
			R:          body[order[Red]],
			G:          body[order[Green]],
			B:          body[order[Blue]],
			Brightness: body[0] & brightnessMask,
		})
		body = body[BytesPerLED:]
	}
	for _, b := range body {
		if b != 0 {
			return nil, fmt.Errorf("%w: trailing data", errFrame)
		}
	}
	return out, nil
}

// HexDump formats the buffer as "[E0, FF, 00, ...]" for debugging.
func (s *Strip) HexDump() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range s.leds {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	sb.WriteByte(']')
	return sb.String()
}

// Dump writes HexDump to w.
func (s *Strip) Dump(w io.Writer) error {
	_, err := io.WriteString(w, s.HexDump())
	return err
}
