package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
	"github.com/matsen/papermeta/internal/export"
	"github.com/matsen/papermeta/internal/reference"
	"github.com/matsen/papermeta/internal/storage"
)

var citePage string

func init() {
	citeCmd.Flags().StringVarP(&citePage, "page", "p", "", "Page number for the in-text citation")
	rootCmd.AddCommand(citeCmd)
}

var citeCmd = &cobra.Command{
	Use:   "cite <id>",
	Short: "Render a Harvard reference and in-text citation",
	Long: `Render a paper as a Harvard reference-list entry and an in-text citation.

The ID may be abbreviated to any unique prefix of at least 4 characters.

Examples:
  pmeta cite 3f2a9c1e
  pmeta cite 3f2a --page 12 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

// CiteResult is the JSON response for the cite command.
type CiteResult struct {
	ID       string `json:"id"`
	Harvard  string `json:"harvard"`
	InText   string `json:"in_text"`
	BibTeXID string `json:"bibtex_key"`
}

func runCite(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()
	p := mustFindPaper(root, args[0])

	result := CiteResult{
		ID:       p.ID,
		Harvard:  export.HarvardReference(p.Metadata),
		InText:   export.InTextCitation(p.Metadata, citePage != "", citePage),
		BibTeXID: export.CiteKey(p),
	}

	if humanOutput {
		fmt.Println(result.Harvard)
		fmt.Println(result.InText)
	} else {
		outputJSON(result)
	}
	return nil
}

// mustFindPaper resolves an ID or unique ID prefix against the JSONL store.
func mustFindPaper(root, id string) reference.Paper {
	papers, err := storage.ReadAll(config.PapersPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading papers: %v", err)
	}
	idx, found := storage.FindByID(papers, id)
	if !found {
		exitWithError(ExitNotFound, "no paper with id %s", id)
	}
	return papers[idx]
}
