package cmd

import (
	"fmt"
	"runtime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/renderlens/renderlens/internal/config"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display the effective configuration, runtime, and version information as a table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Section", "Setting", "Value"})

		t.AppendRows([]table.Row{
			{"Application", "Name", "renderlens"},
			{"Application", "Version", versionInfo.Version},
			{"Application", "Commit", versionInfo.Commit},
			{"Application", "Built", versionInfo.BuildDate},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Runtime", "Go", runtime.Version()},
			{"Runtime", "Platform", runtime.GOOS + "/" + runtime.GOARCH},
			{"Runtime", "NumCPU", runtime.NumCPU()},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Server", "Addr", cfg.Addr()},
			{"Server", "Base Path", cfg.Server.BasePath},
			{"Server", "Environment", cfg.Environment},
			{"Server", "Data Dir", cfg.DataDir},
			{"Server", "Log Level", cfg.Logging.Level},
			{"Server", "Config File", configFileLabel()},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Renderer", "Base URL", cfg.Renderer.BaseURL},
			{"Renderer", "Enabled", cfg.Renderer.Enabled},
			{"Renderer", "Timeout", cfg.Renderer.Timeout},
			{"Renderer", "Presets File", presetsFileLabel(cfg.Renderer.PresetsFile)},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Rate Limit", "Max Per Window", cfg.RateLimit.MaxPerWindow},
			{"Rate Limit", "Window", cfg.RateLimit.Window},
			{"Rate Limit", "Janitor Period", cfg.RateLimit.JanitorPeriod},
			{"Rate Limit", "Janitor Grace", cfg.RateLimit.JanitorGrace},
			{"Batch", "Flush Interval", cfg.Batch.FlushInterval},
		})

		fmt.Println(t.Render())
		return nil
	},
}

func configFileLabel() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(defaults and environment)"
}

func presetsFileLabel(path string) string {
	if path == "" {
		return "(embedded defaults)"
	}
	return path
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
