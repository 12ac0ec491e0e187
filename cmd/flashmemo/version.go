package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flashmemo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flashmemo version %s\n", strings.TrimSpace(flashmemo.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
