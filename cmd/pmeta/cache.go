package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the CrossRef/OpenAlex lookup cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached lookups",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

// CacheClearResult is the response for cache clear.
type CacheClearResult struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()

	cache, err := openLookupCache(root)
	if err != nil {
		exitWithError(ExitError, "opening lookup cache: %v", err)
	}
	defer cache.Close()

	n, err := cache.Clear(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "clearing lookup cache: %v", err)
	}

	if humanOutput {
		fmt.Printf("Removed %d cached lookups\n", n)
	} else {
		outputJSON(CacheClearResult{Status: "cleared", Removed: n})
	}
	return nil
}
