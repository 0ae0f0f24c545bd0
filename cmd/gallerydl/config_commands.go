package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"gallerydl/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(expanded); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", expanded)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", expanded)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			cfg, resolvedPath, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			source := resolvedPath
			if !exists {
				source = fmt.Sprintf("%s (not found, using defaults)", resolvedPath)
			}
			rows := [][]string{
				{"config file", source},
				{"download_dir", cfg.Paths.DownloadDir},
				{"log_dir", cfg.Paths.LogDir},
				{"export_dir", cfg.Paths.ExportDir},
				{"socket", cfg.SocketPath()},
				{"concurrent_images", strconv.Itoa(cfg.Queue.ConcurrentImages)},
				{"retry_count", strconv.Itoa(cfg.Queue.RetryCount)},
				{"retry_delay_ms", strconv.Itoa(cfg.Queue.RetryDelayMs)},
				{"sleep_ms_between_starts", strconv.Itoa(cfg.Queue.SleepMsBetweenStarts)},
				{"filename_template", cfg.Queue.FilenameTemplate},
				{"create_per_gallery_folder", yesNo(cfg.Queue.CreatePerGalleryFolder)},
				{"log format", cfg.Logging.Format},
				{"log level", cfg.Logging.Level},
				{"ntfy configured", yesNo(cfg.Notifications.NtfyTopic != "")},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
