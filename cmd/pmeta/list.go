package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum papers to show (0 for all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the library, most recently added first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()
	db := mustOpenDatabase(root)
	defer db.Close()

	papers, err := db.ListAll(listLimit)
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}

	if humanOutput {
		if len(papers) == 0 {
			fmt.Println("No papers (run 'pmeta rebuild' if the index is out of date)")
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
