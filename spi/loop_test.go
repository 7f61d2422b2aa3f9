package spi_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/apa102"
	. "github.com/coreman2200/apa102/spi"
)

func TestLooperStopsWhenStepDone(t *testing.T) {
	buf := bytes.Buffer{}
	strip, err := apa102.New(3, &buf)
	require.NoError(t, err)

	frames := 0
	l := NewLooper(strip, 200, func(s *apa102.Strip, _ time.Duration) bool {
		frames++
		s.Rotate(1)
		return frames < 3
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))

	assert.Equal(t, 3, frames)
	assert.Equal(t, 3*apa102.FrameLen(3), buf.Len())
}

func TestLooperCancelled(t *testing.T) {
	strip, err := apa102.New(1, nil)
	require.NoError(t, err)
	l := NewLooper(strip, 0, nil)
	assert.Equal(t, DFLT_FPS, l.FPS)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, l.Start(ctx))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestLooperShowError(t *testing.T) {
	strip, err := apa102.New(1, brokenWriter{})
	require.NoError(t, err)
	l := NewLooper(strip, 100, func(*apa102.Strip, time.Duration) bool { return true })
	err = l.Run(context.Background())
	assert.ErrorContains(t, err, "unplugged")
}
