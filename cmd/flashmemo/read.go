package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	readTag  string
	readJSON bool
	readYAML bool
)

var readCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Read a note",
	Long: `Read a note by its ID within a tag. Outputs raw markdown content by default,
or the whole note with --json or --yaml. For remote storage the ID is the
document token shown by ls.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(loadConfig())

		note, err := service.Note(context.Background(), args[0], readTag)
		if err != nil {
			fatal("Error reading note", err)
		}

		switch {
		case readJSON:
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(note); err != nil {
				fatal("Error encoding JSON", err)
			}
		case readYAML:
			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)
			if err := encoder.Encode(note); err != nil {
				fatal("Error encoding YAML", err)
			}
			encoder.Close()
		default:
			fmt.Print(note.Content)
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readTag, "tag", "t", "", "Tag the note is filed under")
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
	readCmd.Flags().BoolVar(&readYAML, "yaml", false, "Output in YAML format")
	readCmd.MarkFlagRequired("tag")
	readCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}
