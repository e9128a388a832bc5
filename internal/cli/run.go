package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/server"
)

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file-or-url>",
		Short: "Process one source video into short clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0])
		},
	}
	cmd.Flags().Float64("duration", 0, "Target clip length in seconds (15, 30 or 60)")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			return server.New(cfg, log, nil).Start()
		},
	}
}

func runProcess(cmd *cobra.Command, input string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetFloat64("duration")

	job := pipeline.Job{TargetLength: duration}
	if isRemoteURL(input) {
		job.SourceURL = input
	} else {
		abs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		job.SourcePath = abs
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	manifest, err := pipeline.Run(ctx, cfg, job, log)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderManifestTable(manifest))
	return nil
}

func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
