package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
	"github.com/matsen/papermeta/internal/reference"
	"github.com/matsen/papermeta/internal/storage"
)

var lookupSave bool

func init() {
	lookupCmd.Flags().BoolVar(&lookupSave, "save", false, "Add the looked-up paper to the library")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <doi>",
	Short: "Look up a paper on CrossRef by DOI",
	Long: `Look up a paper's metadata on CrossRef by DOI.

Accepts bare DOIs and doi.org URLs.

Examples:
  pmeta lookup 10.1038/nature12373
  pmeta lookup https://doi.org/10.1038/nature12373 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

// LookupResult is the JSON response for the lookup command.
type LookupResult struct {
	Metadata reference.Metadata `json:"metadata"`
	Saved    bool               `json:"saved"`
	ID       string             `json:"id,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	var root string
	if lookupSave {
		root = mustFindLibrary()
	} else {
		root, _ = findLibrary()
	}

	p := mustNewPipeline(cfg, root)
	defer p.Close()

	m, ok := p.importer.LookupDOI(cmd.Context(), args[0])
	if !ok {
		exitWithError(ExitNotFound, "no CrossRef record for %s", args[0])
	}

	result := LookupResult{Metadata: m}
	if lookupSave {
		result.ID, result.Saved = mustSaveLookup(root, m)
	}

	if humanOutput {
		printMetadataHuman(m)
		switch {
		case result.Saved:
			fmt.Printf("\nSaved as %s\n", shortID(result.ID))
		case lookupSave:
			fmt.Printf("\nAlready in library as %s\n", shortID(result.ID))
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// mustSaveLookup appends m unless its DOI is already present. It returns the
// paper's ID and whether a new record was written.
func mustSaveLookup(root string, m reference.Metadata) (string, bool) {
	papersPath := config.PapersPath(root)
	papers, err := storage.ReadAll(papersPath)
	if err != nil {
		exitWithError(ExitDataError, "reading papers: %v", err)
	}
	if idx, found := storage.FindByDOI(papers, m.DOI); found {
		return papers[idx].ID, false
	}

	paper := reference.NewPaper(uuid.NewString(), m, reference.SourceDOI, time.Now())
	if err := storage.Append(papersPath, paper); err != nil {
		exitWithError(ExitError, "writing papers: %v", err)
	}
	mustRefreshIndex(root)
	return paper.ID, true
}
