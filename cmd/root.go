// Package cmd implements the lightplan command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lightplan/internal/app"
	"lightplan/internal/config"
	"lightplan/internal/logging"
	"lightplan/internal/project"
	"lightplan/internal/version"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	jsonLogs   bool
	layoutPath string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lightplan",
	Short: "Outdoor lighting layout renderer",
	Long: `lightplan places landscape lighting fixtures on a house photo and renders
a night-time preview, an annotated guide image and an inpainting mask.

Inputs are either a .lightplan project file or a photo plus a layout
document given with --layout.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		log = logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, JSON: jsonLogs})
		log.Debug().Str("version", version.String()).Msg("starting")
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./lightplan.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON lines")
	pf.StringVar(&layoutPath, "layout", "", "layout document (fixtures and mounting lines) used with a photo input")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openInput builds the application state for a project file or a photo.
func openInput(input string) (*app.State, error) {
	state, err := app.NewState(cfg, nil, log)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(input), project.Extension) {
		if err := state.LoadProject(input); err != nil {
			return nil, fmt.Errorf("load project: %w", err)
		}
		return state, nil
	}

	if err := state.LoadPhoto(input); err != nil {
		return nil, err
	}
	if layoutPath != "" {
		data, err := os.ReadFile(layoutPath)
		if err != nil {
			return nil, err
		}
		if !state.Store.Import(data) {
			return nil, fmt.Errorf("layout %s is not a valid layout document", layoutPath)
		}
	}
	return state, nil
}

// outputPath picks the explicit path or one derived from the input name.
func outputPath(explicit, input, suffix, ext string) string {
	if explicit != "" {
		return explicit
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_" + suffix + "." + ext
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("wrote output")
	return nil
}
