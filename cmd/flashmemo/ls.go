package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

var (
	lsJSON bool
	lsAll  bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [tag]",
	Short: "List the notes filed under a tag",
	Long: `List the notes filed under a tag, newest first. With --all every note in the
store is listed, which only local storage supports.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !lsAll && len(args) == 0 {
			fatal("Error", errors.New("a tag is required unless --all is set"))
		}

		service := openService(loadConfig())
		ctx := context.Background()

		var (
			notes []core.Note
			err   error
		)
		if lsAll {
			notes, err = service.AllNotes(ctx)
		} else {
			notes, err = service.Notes(ctx, args[0])
		}
		if err != nil {
			fatal("Error listing notes", err)
		}

		if lsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, n := range notes {
			fmt.Printf("%s  %s  %s %v\n", n.ID, n.CreatedAt, n.Title, n.Tags)
		}
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output in JSON format")
	lsCmd.Flags().BoolVar(&lsAll, "all", false, "List every note regardless of tag")
}
