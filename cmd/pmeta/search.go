package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultListLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over titles, authors and venues",
	Long: `Full-text search over titles, authors and venues in the library index.

Examples:
  pmeta search "protein folding"
  pmeta search smith --limit 5 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()
	db := mustOpenDatabase(root)
	defer db.Close()

	papers, err := db.Search(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		if len(papers) == 0 {
			fmt.Println("No matches")
			return nil
		}
		for _, p := range papers {
			printPaperRow(p)
		}
	} else {
		outputJSON(papers)
	}
	return nil
}
