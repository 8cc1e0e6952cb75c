package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mshogin/fastslow/internal/presentation/api"
)

func init() {
	serveCmd.Flags().String("host", "", "Server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "Server port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}

		// Apply CLI overrides
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			a.cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			a.cfg.Server.Port = port
		}

		handler := api.NewHandler(a.svc, a.logger)
		r := api.NewRouter(handler, a.exporter.Handler(), a.logger)

		// HTTP server
		addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		server := &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
			IdleTimeout:  a.cfg.Server.IdleTimeout,
		}

		// Graceful shutdown
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting server", map[string]interface{}{"addr": addr})
			serverErrors <- server.ListenAndServe()
		}()

		// Wait for interrupt signal
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			a.logger.Info("shutting down gracefully", map[string]interface{}{"signal": sig.String()})

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				a.logger.Warn("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
				if err := server.Close(); err != nil {
					return fmt.Errorf("failed to close server: %w", err)
				}
			}

			a.logger.Info("server stopped")
			return nil
		}
	},
}
