package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from papers.jsonl",
	Long: `Rebuild the SQLite search index from the JSONL source file.

Use this after pulling changes from git or if the index becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()

	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.PapersPath(root))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt index with %d papers\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Papers: count})
	}
	return nil
}
