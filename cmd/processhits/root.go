package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/hitaccum"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "processhits",
		Short:         "Aggregate top-K hits into per-sequence pair scores",
		Long:          `Reads the score and index matrices of a top-K embedding search and writes one record per (query sequence, target sequence) pair.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		NewRunCmd(),
		NewSynthCmd(),
		NewBenchCmd(),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text|json)")
}

// newLogger builds the logger selected by the persistent flags. Fallback
// values come from a config file and apply only when the flags were not set.
func newLogger(cmd *cobra.Command, level, format string) (*hitaccum.Logger, error) {
	if f := cmd.Flags().Lookup("log-level"); f != nil && (f.Changed || level == "") {
		level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && (f.Changed || format == "") {
		format = f.Value.String()
	}

	if level == "" {
		level = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return hitaccum.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), opts)), nil
	case "json":
		return hitaccum.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}
