package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/apa102"
	"github.com/coreman2200/apa102/internal/config"
	"github.com/coreman2200/apa102/internal/layout"
	"github.com/coreman2200/apa102/internal/patterns"
	"github.com/coreman2200/apa102/model"
	"github.com/coreman2200/apa102/spi"
)

var errArgs = errors.New("bad argument")

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apa102",
		Short: apa102.Description,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to a YAML config file")
	pf.IntP("num-led", "n", 60, "number of LEDs on the strip")
	pf.Uint8P("brightness", "b", apa102.MaxBrightness, "global brightness 0..31")
	pf.String("order", "RGB", "colour order on the wire, e.g. RGB, BGR, GRB")
	pf.String("driver", spi.DriverSPI, "output: spi | nrz | console | none")
	pf.String("spi", "", "SPI port name, empty for the first one")
	pf.Int64("speed-hz", int64(spi.DefaultFreq/physic.Hertz), "SPI clock in Hz")
	pf.Int("fps", spi.DFLT_FPS, "frames per second for animations")
	pf.Bool("dump", false, "print the LED buffer after the command")
	pf.BoolP("verbose", "v", false, "debug logging")

	cobra.EnableCommandSorting = false

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the driver version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", apa102.Description, apa102.Version)
		},
	}

	fillCmd := &cobra.Command{
		Use:   "fill COLOR [BRIGHTNESS]",
		Short: "Set every LED to one colour",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseHex(args[0])
			if err != nil {
				return err
			}
			b, err := brightnessArg(args[1:])
			if err != nil {
				return err
			}
			return withStrip(cmd, func(s *apa102.Strip) error {
				r, g, bl := c.RGB()
				s.SetAll(r, g, bl, b...)
				return s.Show()
			})
		},
	}

	pixelCmd := &cobra.Command{
		Use:   "pixel INDEX COLOR [BRIGHTNESS]",
		Short: "Set a single LED, the rest stay dark",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: index %q", errArgs, args[0])
			}
			c, err := model.ParseHex(args[1])
			if err != nil {
				return err
			}
			b, err := brightnessArg(args[2:])
			if err != nil {
				return err
			}
			return withStrip(cmd, func(s *apa102.Strip) error {
				if i < 0 || i >= s.NumLED() {
					return fmt.Errorf("%w: index %d not in 0..%d", errArgs, i, s.NumLED()-1)
				}
				s.SetPixelRGB(i, c.Color(), b...)
				return s.Show()
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Turn every LED off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStrip(cmd, func(s *apa102.Strip) error {
				s.Clear()
				return s.Show()
			})
		},
	}

	wheelCmd := &cobra.Command{
		Use:   "wheel POS",
		Short: "Fill the strip with the colour at POS (0..255) on the colour wheel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("%w: wheel position %q", errArgs, args[0])
			}
			c := apa102.Wheel(uint8(pos))
			fmt.Fprintln(cmd.OutOrStdout(), model.NewColor(c).Hex())
			return withStrip(cmd, func(s *apa102.Strip) error {
				s.SetAllRGB(c)
				return s.Show()
			})
		},
	}

	rainbowCmd := &cobra.Command{
		Use:   "rainbow",
		Short: "Run a rotating rainbow until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runPattern(cmd, patterns.Rainbow, steps)
		},
	}
	rainbowCmd.Flags().Int("steps", 0, "stop after this many frames, 0 runs until interrupted")

	testCmd := &cobra.Command{
		Use:       "test PATTERN",
		Short:     "Run a diagnostic pattern",
		Long:      "Run a diagnostic pattern: index_sweep, rgb_channels, row_sweep or rainbow.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := patterns.Parse(args[0])
			if k == patterns.None {
				return fmt.Errorf("%w: unknown pattern %q", errArgs, args[0])
			}
			steps, _ := cmd.Flags().GetInt("steps")
			return runPattern(cmd, k, steps)
		},
	}
	testCmd.Flags().Int("steps", 0, "stop after this many frames, 0 runs the pattern to its end (rainbow runs until interrupted)")

	dumpCmd := &cobra.Command{
		Use:   "dump [COLOR]",
		Short: "Print the LED buffer and the full frame without sending it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := newStrip(cfg, nil)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				c, err := model.ParseHex(args[0])
				if err != nil {
					return err
				}
				s.SetAllRGB(c.Color())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "leds:  %s\n", s.HexDump())
			fmt.Fprintf(out, "frame: % X\n", s.Frame())
			return nil
		},
	}

	rootCmd.AddCommand(
		versionCmd,
		fillCmd,
		pixelCmd,
		clearCmd,
		wheelCmd,
		rainbowCmd,
		testCmd,
		newServeCmd(),
		dumpCmd,
	)

	return rootCmd
}

// loadConfig layers the config file, if any, under the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		c, err := config.Load(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", path).Msg("config file not found; using defaults")
		case err != nil:
			return nil, err
		default:
			cfg = c
		}
	}

	if flags.Changed("num-led") {
		cfg.NumLED, _ = flags.GetInt("num-led")
	}
	if flags.Changed("brightness") {
		cfg.GlobalBrightness, _ = flags.GetUint8("brightness")
	}
	if flags.Changed("order") {
		cfg.Order, _ = flags.GetString("order")
	}
	if flags.Changed("driver") {
		cfg.Driver, _ = flags.GetString("driver")
	}
	if flags.Changed("spi") {
		cfg.SPI.Dev, _ = flags.GetString("spi")
	}
	if flags.Changed("speed-hz") {
		cfg.SPI.SpeedHz, _ = flags.GetInt64("speed-hz")
	}
	if flags.Changed("fps") {
		cfg.FPS, _ = flags.GetInt("fps")
	}
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if got := apa102.ParseOrder(cfg.Order).String(); !strings.EqualFold(got, cfg.Order) {
		log.Warn().Str("order", cfg.Order).Str("using", got).Msg("unknown colour order")
	}
	return cfg, cfg.Validate()
}

func newStrip(cfg *config.Config, w io.Writer) (*apa102.Strip, error) {
	return apa102.New(cfg.NumLED, w,
		apa102.WithGlobalBrightness(cfg.GlobalBrightness),
		apa102.WithOrder(cfg.Order))
}

func openOutput(cfg *config.Config) (spi.Output, error) {
	return spi.Open(spi.Options{
		Driver: cfg.Driver,
		Dev:    cfg.SPI.Dev,
		Freq:   physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz,
		NumLED: cfg.NumLED,
		Order:  apa102.ParseOrder(cfg.Order),
	})
}

// withStrip opens the configured output, hands a strip on it to fn, and
// closes the output when fn returns.
func withStrip(cmd *cobra.Command, fn func(*apa102.Strip) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := openOutput(cfg)
	if err != nil {
		return err
	}
	defer out.Close()
	log.Debug().Str("output", out.String()).Int("num_led", cfg.NumLED).Msg("strip ready")

	s, err := newStrip(cfg, out)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetBool("dump"); d {
		return s.Dump(cmd.OutOrStdout())
	}
	return nil
}

func runPattern(cmd *cobra.Command, k patterns.Kind, steps int) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	l := layout.Layout(cfg.Layout)
	if l.Count() == 0 {
		l = layout.Layout{Width: cfg.NumLED, Height: 1}
	}
	r := patterns.NewRunner(patterns.Plan{Kind: k, Layout: l, Steps: steps})
	start := time.Now()
	err = withStrip(cmd, func(s *apa102.Strip) error {
		log.Info().Str("pattern", string(k)).Int("fps", cfg.FPS).Msg("running")
		lp := spi.NewLooper(s, cfg.FPS, func(s *apa102.Strip, _ time.Duration) bool {
			return r.Step(s)
		})
		if err := lp.Start(cmd.Context()); err != nil {
			return err
		}
		s.Clear()
		return s.Show()
	})
	log.Info().Str("pattern", string(k)).Dur("elapsed", time.Since(start)).Msg("done")
	return err
}

func brightnessArg(args []string) ([]uint8, error) {
	if len(args) == 0 {
		return nil, nil
	}
	v, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || v > uint64(apa102.MaxBrightness) {
		return nil, fmt.Errorf("%w: brightness %q not in 0..31", errArgs, args[0])
	}
	return []uint8{uint8(v)}, nil
}

func kindNames() []string {
	names := make([]string, len(patterns.Kinds))
	for i, k := range patterns.Kinds {
		names[i] = string(k)
	}
	return names
}
