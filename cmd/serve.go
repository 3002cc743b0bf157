package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/lumiere-ledger/internal/adapters/httpapi"
	"github.com/bnema/lumiere-ledger/internal/version"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the marketplace JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.cfg.ServerAddr
			}

			handler := httpapi.New(httpapi.Services{
				Market:    app.market,
				Feedback:  app.feedback,
				Identity:  app.identity,
				MessageID: app.messageID,
				Version:   version.Version,
			})
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "lm serving on %s (state: %s)\n", addr, app.cfg.StateBackend)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")

	return cmd
}
