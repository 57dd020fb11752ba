package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pr-poehali-dev/image-description-webapp/internal/config"
	"github.com/pr-poehali-dev/image-description-webapp/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long:  `Start the HTTP server hosting the image description interface.`,
		Example: `  describer serve
  describer serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}

			handler, err := handlers.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize handlers: %w", err)
			}
			defer handler.Close()

			server := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: handler.Mux(),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Describer interface available", "url", "http://localhost:"+cfg.Port)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serverErr <- err
				}
			}()

			select {
			case err := <-serverErr:
				return fmt.Errorf("server failed: %w", err)
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				slog.Info("Server stopped")
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides DESCRIBER_PORT)")

	return cmd
}
