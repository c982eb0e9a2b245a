package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexus/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildPlatform()
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()

		addr := serveAddr
		if addr == "" {
			addr = p.cfg.ListenAddr
		}

		srv := server.New(addr, server.Options{
			Dispatcher:  p.dispatcher,
			Runner:      p.runner,
			Knowledge:   p.kb,
			TTS:         p.tts,
			Vision:      p.vision,
			Batch:       p.pool,
			Reports:     p.reports,
			Transcriber: p.transcriber,
			Embedder:    p.provider,
			Guard:       p.guard,
			Observer:    p.observe,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				fmt.Printf("Server failed: %v\n", err)
				os.Exit(1)
			}
		case <-quit:
			p.observe.Log().Info().Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				p.observe.Log().Warn().Err(err).Msg("forced shutdown")
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides config)")
}
