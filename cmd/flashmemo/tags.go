package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tag indices",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(loadConfig())

		tags, err := service.Tags(context.Background())
		if err != nil {
			fatal("Error listing tags", err)
		}
		for _, t := range tags {
			fmt.Println(t)
		}
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
