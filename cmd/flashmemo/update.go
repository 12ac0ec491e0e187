package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

var (
	updateTag     string
	updateContent string
	updateStdin   bool
	updateTags    []string
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace the content of a stored note",
	Long: `Load a note by its ID within a tag, replace its content and store it again.
The note keeps its id. Pass --tags to refile it under a new set of tags.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content := updateContent
		if updateStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Error reading stdin", err)
			}
			content = string(data)
		}
		if content == "" {
			fatal("Error", errors.New("no content: pass --content or --stdin"))
		}

		service := openService(loadConfig())
		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "update note "+args[0])

		note, err := service.Note(ctx, args[0], updateTag)
		if err != nil {
			fatal("Error reading note", err)
		}
		note.Content = content
		if cmd.Flags().Changed("tags") {
			note.Tags = updateTags
		}

		res, err := service.UpdateNote(ctx, note)
		if err != nil {
			fatal("Error updating note", err)
		}
		fmt.Println(res.Summary())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&updateTag, "tag", "t", "", "Tag the note is filed under")
	updateCmd.Flags().StringVarP(&updateContent, "content", "c", "", "New note content")
	updateCmd.Flags().BoolVar(&updateStdin, "stdin", false, "Read the new content from stdin")
	updateCmd.Flags().StringSliceVar(&updateTags, "tags", nil, "Replace the note's tags")
	updateCmd.MarkFlagRequired("tag")
	updateCmd.MarkFlagsMutuallyExclusive("content", "stdin")
}
