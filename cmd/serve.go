package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkroom-tools/darkroom/internal/config"
	"github.com/darkroom-tools/darkroom/internal/gemini"
	"github.com/darkroom-tools/darkroom/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string
	var model string
	var presetsPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photo editing API server",
		Long: `Starts the Darkroom editing API on the specified port.

Upload one image to edit it interactively with undo/redo, or several images
to process them as a batch. Requires GEMINI_API_KEY to be set.`,
		Example: `  # Start server on default port 8888
  darkroom serve

  # Start server on custom port with a custom presets file
  darkroom serve --port 3000 --presets presets.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.Default()
			if presetsPath != "" {
				loaded, err := config.Load(presetsPath)
				if err != nil {
					return err
				}
				presets = loaded
				slog.Info("Loaded presets", "path", presetsPath,
					"filters", len(presets.Filters), "adjustments", len(presets.Adjustments))
			}

			handler := handlers.New(gemini.New(model), presets)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/upload", handler.HandleUpload)
			mux.HandleFunc("/api/presets", handler.HandlePresets)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Darkroom API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Release remaining display handles before exit
				handler.Store().Teardown()
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Gemini model to use for edits")
	cmd.Flags().StringVar(&presetsPath, "presets", "", "Path to a YAML file of filter/adjustment presets")

	return cmd
}
