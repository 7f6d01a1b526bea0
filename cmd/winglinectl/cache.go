package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk stage cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry in the configured cache directory",
	RunE:  runCacheClear,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the resolved cache directory",
	RunE:  runCacheInfo,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	settings := effectiveSettings()
	if settings.CacheDir == "" {
		return fmt.Errorf("winglinectl cache clear: no cache directory configured")
	}
	if err := os.RemoveAll(settings.CacheDir); err != nil {
		return fmt.Errorf("winglinectl cache clear: %w", err)
	}
	fmt.Printf("cleared %s\n", settings.CacheDir)
	return nil
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	settings := effectiveSettings()
	if settings.CacheDir == "" {
		fmt.Println("caching disabled")
		return nil
	}
	fmt.Println(settings.CacheDir)
	return nil
}
