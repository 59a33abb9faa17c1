package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/faceapi"
	"github.com/kozaktomas/face-locker/internal/recognizer"
	"github.com/kozaktomas/face-locker/internal/storage"
	"github.com/kozaktomas/face-locker/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Locker API server.
The server exposes endpoints for enrolling users, training models and
recognizing faces against the configured storage backend.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Auth.AdminToken == "" {
		return errors.New("ADMIN_TOKEN environment variable is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	fmt.Printf("Using %s storage backend\n", cfg.Storage.Backend)

	engine := faceapi.NewClient(cfg.FaceAPI.URL, cfg.FaceAPI.Model)
	rec := recognizer.New(store, engine, cfg.Recognizer.ConfidenceThreshold, cfg.Recognizer.MaxImageSize)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, store, rec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Locker API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
