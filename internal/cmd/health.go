package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/renderlens/renderlens/internal/config"
	"github.com/renderlens/renderlens/internal/observability"
	"github.com/renderlens/renderlens/internal/render"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify the binary can load its configuration, quality presets, and data directories without starting the server.",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	logger, err := observability.NewCLILogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Running health check...")

	if versionInfo.Version == "" {
		logger.Error("❌ FAIL: Version information missing")
		return fmt.Errorf("version information missing")
	}
	logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
	logger.Info("✅ Version information available")

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		logger.Error("❌ FAIL: Configuration invalid", zap.Error(err))
		return fmt.Errorf("configuration invalid: %w", err)
	}
	logger.Info("✅ Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.Addr()))

	presets := render.DefaultPresets()
	if cfg.Renderer.PresetsFile != "" {
		presets, err = render.LoadPresetsFile(cfg.Renderer.PresetsFile)
		if err != nil {
			logger.Error("❌ FAIL: Quality presets unreadable", zap.Error(err))
			return fmt.Errorf("quality presets unreadable: %w", err)
		}
	}
	logger.Info("✅ Quality presets available", zap.Int("tiers", len(presets)))

	// Missing data directories keep /ready reporting not ready but do not
	// stop the server from starting, so they only warn here.
	for _, dir := range []string{"quizzes", "results", filepath.Join("public", "uploads")} {
		path := filepath.Join(cfg.DataDir, dir)
		info, statErr := os.Stat(path)
		switch {
		case statErr != nil:
			logger.Warn("⚠️ Data directory missing", zap.String("path", path))
		case !info.IsDir():
			logger.Error("❌ FAIL: Data path is not a directory", zap.String("path", path))
			return fmt.Errorf("data path %s is not a directory", path)
		default:
			logger.Debug("Data directory present", zap.String("path", path))
		}
	}

	logger.Info("✅ All health checks passed")
	return nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
