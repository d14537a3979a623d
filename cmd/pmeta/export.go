package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/export"
	"github.com/matsen/papermeta/internal/reference"
)

var (
	exportIDs    string
	exportAppend string
)

func init() {
	exportCmd.Flags().StringVar(&exportIDs, "ids", "", "Export only specified IDs (comma-separated, prefixes allowed)")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append to a .bib file, skipping entries it already has")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export papers to BibTeX",
	Long: `Export papers to BibTeX.

Entries are @article when a journal is known, @book when only a publisher is
known, and @misc otherwise.

Examples:
  pmeta export > refs.bib
  pmeta export --ids 3f2a,9bc0
  pmeta export --append refs.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResult is the JSON response for export with --append.
type ExportResult struct {
	Exported   int      `json:"exported"`              // Number of entries written
	Skipped    int      `json:"skipped"`               // Number of duplicates skipped
	SkippedIDs []string `json:"skipped_ids,omitempty"` // IDs that were duplicates
	OutputPath string   `json:"output_path"`
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()

	var papers []reference.Paper
	if exportIDs != "" {
		for _, id := range splitIDs(exportIDs) {
			papers = append(papers, mustFindPaper(root, id))
		}
	} else {
		db := mustOpenDatabase(root)
		var err error
		papers, err = db.ListAll(0)
		db.Close()
		if err != nil {
			exitWithError(ExitError, "listing papers: %v", err)
		}
	}

	if exportAppend == "" {
		// BibTeX to stdout is always text, never JSON
		fmt.Print(export.ToBibTeXList(papers))
		return nil
	}

	result := mustAppendBibTeX(exportAppend, papers)
	if humanOutput {
		fmt.Printf("Exported %d entries to %s (%d already present)\n", result.Exported, result.OutputPath, result.Skipped)
	} else {
		outputJSON(result)
	}
	return nil
}

func mustAppendBibTeX(path string, papers []reference.Paper) ExportResult {
	idx, err := export.ParseBibTeXFile(path)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}

	result := ExportResult{OutputPath: path}
	var fresh []reference.Paper
	for _, p := range papers {
		if idx.Contains(p) {
			result.Skipped++
			result.SkippedIDs = append(result.SkippedIDs, p.ID)
			continue
		}
		idx.Add(p)
		fresh = append(fresh, p)
	}

	if len(fresh) > 0 {
		if err := export.AppendToBibFile(path, export.ToBibTeXList(fresh)); err != nil {
			exitWithError(ExitError, "writing %s: %v", path, err)
		}
	}
	result.Exported = len(fresh)
	return result
}
