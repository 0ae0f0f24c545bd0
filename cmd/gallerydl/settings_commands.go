package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gallerydl/internal/ipc"
	"gallerydl/internal/orchestrator"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change the daemon's runtime settings",
	}
	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current runtime settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SettingsGet()
				if err != nil {
					return err
				}
				printSettings(cmd, resp.Settings)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		concurrent     int
		retryCount     int
		retryDelay     int
		sleepBetween   int
		template       string
		perFolder      string
		completionWait int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change runtime settings; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.SettingsGet()
				if err != nil {
					return err
				}
				settings := current.Settings

				if cmd.Flags().Changed("concurrent") {
					settings.ConcurrentImages = concurrent
				}
				if cmd.Flags().Changed("retry-count") {
					settings.RetryCount = retryCount
				}
				if cmd.Flags().Changed("retry-delay-ms") {
					settings.RetryDelayMs = retryDelay
				}
				if cmd.Flags().Changed("sleep-ms") {
					settings.SleepMsBetweenStarts = sleepBetween
				}
				if cmd.Flags().Changed("template") {
					settings.FilenameTemplate = template
				}
				if cmd.Flags().Changed("per-gallery-folder") {
					enabled, err := strconv.ParseBool(perFolder)
					if err != nil {
						return fmt.Errorf("per-gallery-folder expects true or false: %w", err)
					}
					settings.CreatePerGalleryFolder = enabled
				}
				if cmd.Flags().Changed("completion-wait-minutes") {
					settings.CompletionWaitTimeoutMinutes = completionWait
				}

				resp, err := client.SettingsSave(settings)
				if err != nil {
					return err
				}
				printSettings(cmd, resp.Settings)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "Concurrent image downloads")
	cmd.Flags().IntVar(&retryCount, "retry-count", 0, "Per-image retry budget")
	cmd.Flags().IntVar(&retryDelay, "retry-delay-ms", 0, "Delay between retries in milliseconds")
	cmd.Flags().IntVar(&sleepBetween, "sleep-ms", 0, "Throttle between image starts in milliseconds")
	cmd.Flags().StringVar(&template, "template", "", "Filename template")
	cmd.Flags().StringVar(&perFolder, "per-gallery-folder", "", "Create one folder per gallery (true/false)")
	cmd.Flags().IntVar(&completionWait, "completion-wait-minutes", 0, "Minutes to wait for in-flight downloads at gallery end")
	return cmd
}

func printSettings(cmd *cobra.Command, s orchestrator.Settings) {
	rows := [][]string{
		{"concurrent_images", strconv.Itoa(s.ConcurrentImages)},
		{"retry_count", strconv.Itoa(s.RetryCount)},
		{"retry_delay_ms", strconv.Itoa(s.RetryDelayMs)},
		{"sleep_ms_between_starts", strconv.Itoa(s.SleepMsBetweenStarts)},
		{"filename_template", s.FilenameTemplate},
		{"create_per_gallery_folder", yesNo(s.CreatePerGalleryFolder)},
		{"completion_wait_timeout_minutes", strconv.Itoa(s.CompletionWaitTimeoutMinutes)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Setting", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}
