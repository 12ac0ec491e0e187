package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/pkg/capture"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

var (
	saveTags  []string
	saveStdin bool
	saveHTML  string
	saveURL   string
)

var saveCmd = &cobra.Command{
	Use:   "save [text...]",
	Short: "Save a note under one or more tags",
	Long: `Save a note. The content comes from the arguments, from stdin with --stdin,
or from an HTML file converted to Markdown with --html. A note without tags is
filed under Uncategorized.`,
	Run: func(cmd *cobra.Command, args []string) {
		var src core.Source
		switch {
		case saveHTML != "":
			data, err := os.ReadFile(saveHTML)
			if err != nil {
				fatal("Error reading HTML file", err)
			}
			src = capture.HTMLSource{HTML: string(data), URL: saveURL}
		case saveStdin:
			src = capture.ReaderSource{R: os.Stdin}
		default:
			if len(args) == 0 {
				fatal("Error", errors.New("no content: pass text, --stdin or --html"))
			}
			src = capture.TextSource{Text: strings.Join(args, " ")}
		}

		cfg := loadConfig()
		service := openService(cfg)

		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "save note")
		res, err := service.Capture(ctx, src, saveTags)
		if err != nil {
			if res.Note.ID != "" {
				fmt.Fprintln(os.Stderr, res.Summary())
			}
			fatal("Error saving note", err)
		}

		fmt.Println(res.Summary())
		if res.Partial() {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringSliceVarP(&saveTags, "tag", "t", nil, "Tag to file the note under (repeatable or comma separated)")
	saveCmd.Flags().BoolVar(&saveStdin, "stdin", false, "Read the note content from stdin")
	saveCmd.Flags().StringVar(&saveHTML, "html", "", "Read HTML from file and convert it to Markdown")
	saveCmd.Flags().StringVar(&saveURL, "url", "", "Origin URL of the HTML, used for relative links")
	saveCmd.MarkFlagsMutuallyExclusive("stdin", "html")
}
