package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cacheDir   string
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "winglinectl",
	Short: "Run and inspect wingline pipelines from the command line",
	Long: `winglinectl is a thin command-line boundary over the wingline pipeline
engine: it converts record files between containers and formats,
prints a pipeline's stage graph, and manages the on-disk stage cache.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("winglinectl %s\n", Version)
		fmt.Printf("built:  %s\n", BuildTime)
		fmt.Printf("commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "stage cache directory (overrides config and WINGLINE_CACHE_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (overrides config and WINGLINE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "wingline.yml", "path to the wingline YAML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(cacheCmd)
}
