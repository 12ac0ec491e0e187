package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/internal/config"
)

var (
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default settings",
	Long: `Write a configuration file with default settings. Secrets may be left as
${ENV_VAR} references, which are expanded when the file is loaded.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := configInitPath
		if path == "" {
			path = configPath
		}
		if path == "" {
			path = config.DefaultPath()
		}

		if err := config.Write(path, config.DefaultConfig(), configInitForce); err != nil {
			fatal("Error writing config", err)
		}
		fmt.Printf("Wrote %s\n", path)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.DefaultPath())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Where to write the file (default is the user config dir)")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file")
}
