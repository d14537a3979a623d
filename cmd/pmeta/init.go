package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a paper library",
	Long: `Create a paper library in the given directory (default: current directory).

The library lives in a .pmeta directory:
  .pmeta/papers.jsonl        source of truth, one paper per line
  .pmeta/cache/papers.db     search index (rebuild with 'pmeta rebuild')
  .pmeta/cache/lookups.db    CrossRef/OpenAlex lookup cache`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = config.ExpandPath(args[0])
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	status := "created"
	if config.IsLibrary(abs) {
		status = "exists"
	}
	if err := config.InitLibrary(abs); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		if status == "exists" {
			fmt.Printf("Library already exists at %s\n", abs)
		} else {
			fmt.Printf("Created library at %s\n", abs)
		}
	} else {
		outputJSON(StatusResponse{Status: status, Path: abs})
	}
	return nil
}
