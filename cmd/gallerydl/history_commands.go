package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gallerydl/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage download history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryResumeCommand(ctx))
	historyCmd.AddCommand(newHistoryExportCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show completed galleries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList()
				if err != nil {
					return err
				}
				if len(resp.Completed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no completed galleries")
					return nil
				}
				rows := make([][]string, 0, len(resp.Completed))
				for _, rec := range resp.Completed {
					rows = append(rows, []string{
						rec.GalleryID,
						rec.Title,
						strconv.Itoa(rec.Total),
						formatTimestamp(rec.Timestamp),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Gallery ID", "Title", "Images", "Completed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newHistoryResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Show galleries that did not finish cleanly",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ResumeList()
				if err != nil {
					return err
				}
				if len(resp.Resume) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no unfinished galleries")
					return nil
				}
				rows := make([][]string, 0, len(resp.Resume))
				for _, rec := range resp.Resume {
					detail := ""
					if rec.LastError {
						detail = rec.LastErrorMsg
					}
					rows = append(rows, []string{
						rec.GalleryID,
						yesNo(rec.Stopped),
						yesNo(rec.LastError),
						detail,
						formatTimestamp(rec.Timestamp),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Gallery ID", "Stopped", "Error", "Detail", "Recorded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	var pathFlag string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the completed history to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryExport(pathFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", resp.Count, resp.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&pathFlag, "output", "o", "", "Export file path (default: timestamped file in the export directory)")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", resp.Removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the history")
	return cmd
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
