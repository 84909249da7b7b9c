package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	monkeytools "github.com/inf-monkeys/monkey-tools-text"
	"github.com/inf-monkeys/monkey-tools-text/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "monkeytools",
	Short: "Text and document tools for Monkeys workflows",
	Long: `monkeytools serves file conversion, OCR, PDF extraction and text
processing tools over HTTP (with an OpenAPI manifest) and MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// persistentKeys maps config keys to the persistent flags that override them.
var persistentKeys = map[string]string{
	"log.level":  "log-level",
	"log.format": "log-format",
}

// loadConfig reads the config file, the environment and the flags of cmd.
// extra binds command-local flags.
func loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	opts := []config.Option{config.WithFlags(cmd.Flags(), persistentKeys)}
	if len(extra) > 0 {
		opts = append(opts, config.WithFlags(cmd.Flags(), extra))
	}
	return config.Load(path, opts...)
}

// newApp loads the configuration and wires the service.
func newApp(ctx context.Context, cmd *cobra.Command, extra map[string]string) (*monkeytools.App, error) {
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return nil, err
	}
	return monkeytools.New(ctx, *cfg)
}
