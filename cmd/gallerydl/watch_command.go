package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gallerydl/internal/events"
	"gallerydl/internal/ipc"
)

// watch long-polls the daemon's event stream and prints each event as it
// arrives, until interrupted.
func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream daemon events to the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withClient(func(client *ipc.Client) error {
				var since uint64
				for {
					if watchCtx.Err() != nil {
						return nil
					}
					resp, err := client.Events(ipc.EventsRequest{
						Since:      since,
						Limit:      100,
						WaitMillis: 5000,
					})
					if err != nil {
						return err
					}
					for _, evt := range resp.Events {
						fmt.Fprintln(cmd.OutOrStdout(), formatEvent(evt))
					}
					since = resp.Next
				}
			})
		},
	}
}

func formatEvent(evt events.Event) string {
	ts := evt.Timestamp.Local().Format("15:04:05")
	switch evt.Type {
	case events.TypeQueueUpdated:
		titles := make([]string, 0, len(evt.Queue))
		for _, entry := range evt.Queue {
			titles = append(titles, entry.Title)
		}
		if len(titles) == 0 {
			return fmt.Sprintf("%s queue empty", ts)
		}
		return fmt.Sprintf("%s queue: %s", ts, strings.Join(titles, ", "))
	case events.TypeDownloadStatus:
		if evt.Status == events.StatusPreparing {
			return fmt.Sprintf("%s %s: preparing (%d images)", ts, evt.Title, evt.Total)
		}
		return fmt.Sprintf("%s %s: downloading %d/%d", ts, evt.Title, evt.Index, evt.Total)
	case events.TypeDownloadProgress:
		return fmt.Sprintf("%s %s: started %d/%d", ts, evt.GalleryID, evt.Current, evt.Total)
	case events.TypeDownloadFinished:
		return fmt.Sprintf("%s %s: finished", ts, evt.GalleryID)
	case events.TypeDownloadError:
		return fmt.Sprintf("%s %s: error: %s", ts, evt.GalleryID, evt.Message)
	case events.TypeHistoryCleared:
		return fmt.Sprintf("%s history cleared", ts)
	default:
		return fmt.Sprintf("%s %s", ts, evt.Type)
	}
}
