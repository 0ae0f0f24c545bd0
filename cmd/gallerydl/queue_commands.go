package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"gallerydl/internal/gallery"
	"gallerydl/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the download queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueStopCommand(ctx))
	queueCmd.AddCommand(newQueueStopAllCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show pending galleries in queue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				if len(resp.Queue) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Queue))
				for i, entry := range resp.Queue {
					rows = append(rows, []string{strconv.Itoa(i + 1), entry.Title, entry.GalleryID})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Title", "Gallery ID"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add [job.json]",
		Short: "Enqueue a gallery job from a JSON file (or stdin with -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := readJob(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Enqueue(job)
				if err != nil {
					return err
				}
				if !resp.Accepted {
					return fmt.Errorf("job rejected: %s", resp.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%d images)\n", job.DisplayTitle(), len(job.Images))
				return nil
			})
		},
	}
}

func readJob(arg string, stdin io.Reader) (gallery.Job, error) {
	var reader io.Reader
	if arg == "-" {
		reader = stdin
	} else {
		file, err := os.Open(arg)
		if err != nil {
			return gallery.Job{}, fmt.Errorf("open job file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var job gallery.Job
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&job); err != nil {
		return gallery.Job{}, fmt.Errorf("parse job: %w", err)
	}
	return job, nil
}

func newQueueStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <gallery-id>",
		Short: "Stop one gallery, queued or downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StopGallery(args[0])
				if err != nil {
					return err
				}
				if !resp.OK {
					return errors.New(resp.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stop requested for %s\n", args[0])
				return nil
			})
		},
	}
}

func newQueueStopAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Clear the queue and abort all active downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.StopAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all downloads stopped")
				return nil
			})
		},
	}
}
