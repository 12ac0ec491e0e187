package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the local store as they happen",
	Long: `Watch the local store for notes created, modified or deleted outside of
flashmemo, for example by an editor or a sync tool. Remote storage is not
supported.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(loadConfig())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := service.Watch(ctx)
		if errors.Is(err, core.ErrUnsupported) {
			fatal("Error", errors.New("watch is only available for local storage"))
		}
		if err != nil {
			fatal("Error starting watcher", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		for ev := range events {
			if watchJSON {
				if err := encoder.Encode(ev); err != nil {
					fatal("Error encoding JSON", err)
				}
				continue
			}
			ts := time.Unix(ev.Timestamp, 0).Format(core.TimestampLayout)
			fmt.Printf("%s %-6s %s\n", ts, ev.Type, ev.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Output events as JSON lines")
}
