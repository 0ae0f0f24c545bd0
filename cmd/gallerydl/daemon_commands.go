package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gallerydl/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				rows := [][]string{
					{"running", yesNo(resp.Running)},
					{"draining", yesNo(resp.Draining)},
					{"queue length", strconv.Itoa(resp.QueueLength)},
					{"history db", resp.HistoryDB},
					{"socket", resp.SocketPath},
					{"pid", strconv.Itoa(resp.PID)},
				}
				if resp.Active != nil {
					rows = append(rows,
						[]string{"active gallery", fmt.Sprintf("%s (%s)", resp.Active.Title, resp.Active.GalleryID)},
						[]string{"active images", strconv.Itoa(resp.Active.Total)},
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Field", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newStopDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-daemon",
		Short: "Shut the daemon down",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StopDaemon()
				if err != nil {
					return err
				}
				if resp.Stopping {
					fmt.Fprintln(cmd.OutOrStdout(), "daemon shutting down")
				}
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification via the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
