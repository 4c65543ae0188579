package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/renderlens/renderlens/internal/config"
	"github.com/renderlens/renderlens/internal/observability"
	"github.com/renderlens/renderlens/internal/render"
	"github.com/renderlens/renderlens/internal/server"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

SIGINT or SIGTERM drains in-flight requests within the configured
shutdown timeout, stops the background timers (rate-limit janitor,
batch flush loop), and flushes logs.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := observability.NewServerLogger("renderlens", level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	renderer, err := buildRenderer(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Logger:   logger,
		Renderer: renderer,
	})
	defer srv.Close()

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("environment", cfg.Environment),
		zap.Bool("renderer_enabled", cfg.Renderer.Enabled))

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("HTTP server stopped gracefully")
	return nil
}

// buildRenderer assembles the render client from configuration, loading
// preset overrides when a file is named.
func buildRenderer(cfg *config.Config, logger *zap.Logger) (render.Service, error) {
	presets := render.DefaultPresets()
	if path := cfg.Renderer.PresetsFile; path != "" {
		loaded, err := render.LoadPresetsFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load quality presets from %s: %w", path, err)
		}
		presets = loaded
		logger.Info("Loaded quality presets", zap.String("path", path))
	}

	return render.NewClient(render.ClientConfig{
		BaseURL: cfg.Renderer.BaseURL,
		Enabled: cfg.Renderer.Enabled,
		Timeout: cfg.Renderer.Timeout,
		Presets: presets,
	}), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
