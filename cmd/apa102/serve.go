package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/apa102/internal/layout"
	"github.com/coreman2200/apa102/internal/ws"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Serve the strip over websockets",
		Long: `Serve the strip over HTTP:
  /control  JSON commands in, JSON replies out
  /frames   msgpack frame on every show
  /diag     JSON diagnostics
  /health   JSON status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := openOutput(cfg)
			if err != nil {
				return err
			}
			defer out.Close()

			s, err := newStrip(cfg, out)
			if err != nil {
				return err
			}
			l := layout.Layout(cfg.Layout)
			if l.Count() == 0 {
				l = layout.Layout{Width: cfg.NumLED, Height: 1}
			}

			state := ws.NewState(s, l, cfg.FPS)
			state.Config = cfg
			state.ConfigPath, _ = cmd.Flags().GetString("config")
			state.CurrentDriver = out.String()

			srv := &http.Server{
				Addr:         cfg.Addr,
				Handler:      withCORS(newMux(state)),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go state.RunRenderLoop(ctx)
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("driver", state.CurrentDriver).Msg("HTTP server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info().Msg("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			s.Clear()
			return s.Show()
		},
	}
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	return serveCmd
}

func newMux(state *ws.State) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)
	return mux
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
