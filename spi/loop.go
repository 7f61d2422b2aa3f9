package spi

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/coreman2200/apa102"
	"github.com/rs/zerolog/log"
)

const DFLT_FPS = 30

// StepFunc updates the strip for the frame at elapsed time since start.
// Returning false ends the loop.
type StepFunc func(s *apa102.Strip, elapsed time.Duration) bool

// Looper refreshes a strip at a fixed rate until cancelled, interrupted or
// the step func reports it is done.
type Looper struct {
	FPS   int
	strip *apa102.Strip
	step  StepFunc
}

func NewLooper(s *apa102.Strip, fps int, step StepFunc) *Looper {
	if fps <= 0 {
		fps = DFLT_FPS
	}
	return &Looper{FPS: fps, strip: s, step: step}
}

// Run drives the loop until ctx is done. A failed Show stops it.
func (l *Looper) Run(ctx context.Context) error {
	period := time.Second / time.Duration(l.FPS)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case t := <-ticker.C:
			if l.step != nil && !l.step(l.strip, t.Sub(start)) {
				return l.strip.Show()
			}
			if err := l.strip.Show(); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Start runs the loop and stops it on Ctrl+C.
func (l *Looper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// trap Ctrl+C and call cancel on the context
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	go func() {
		select {
		case sig := <-c:
			log.Info().Str("signal", sig.String()).Msg("aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	return l.Run(ctx)
}
