package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
	"github.com/matsen/papermeta/internal/importer"
	"github.com/matsen/papermeta/internal/probe"
	"github.com/matsen/papermeta/internal/reference"
	"github.com/matsen/papermeta/internal/storage"
)

var (
	addConcurrency int
	addDryRun      bool
)

func init() {
	addCmd.Flags().IntVarP(&addConcurrency, "jobs", "j", importer.DefaultConcurrency, "Files to process concurrently")
	addCmd.Flags().BoolVar(&addDryRun, "dry-run", false, "Show what would be added without writing")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Extract metadata from files and add them to the library",
	Long: `Extract metadata from PDF or EPUB files and add the papers to the library.

Files whose DOI is already in the library are skipped. Files that yield no
metadata at all are reported so they can be entered by hand.

Examples:
  pmeta add paper.pdf
  pmeta add --dry-run ~/Downloads/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

// AddResult is the JSON response for the add command.
type AddResult struct {
	Added   []AddDetail `json:"added"`
	Skipped []AddDetail `json:"skipped"`
	DryRun  bool        `json:"dry_run,omitempty"`
}

// AddDetail describes what happened to a single file.
type AddDetail struct {
	File   string `json:"file"`
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Skip reasons reported by add.
const (
	reasonNoMetadata = "no_metadata"
	reasonDuplicate  = "duplicate_doi"
)

func runAdd(cmd *cobra.Command, args []string) error {
	root := mustFindLibrary()
	cfg := mustLoadConfig()
	p := mustNewPipeline(cfg, root)
	defer p.Close()

	papersPath := config.PapersPath(root)
	existing, err := storage.ReadAll(papersPath)
	if err != nil {
		exitWithError(ExitDataError, "reading papers: %v", err)
	}

	files := mustReadFiles(args)
	results := p.importer.ExtractAll(cmd.Context(), files, addConcurrency)

	papers, result := planAdds(results, existing, uuid.NewString, time.Now())
	result.DryRun = addDryRun

	if !addDryRun {
		for _, paper := range papers {
			if err := storage.Append(papersPath, paper); err != nil {
				exitWithError(ExitError, "writing papers: %v", err)
			}
		}
		if len(papers) > 0 {
			mustRefreshIndex(root)
		}
	}

	if humanOutput {
		verb := "Added"
		if addDryRun {
			verb = "Would add"
		}
		for _, d := range result.Added {
			fmt.Printf("%s %s  %s\n", verb, shortID(d.ID), truncateString(d.Title, ListTitleWidth))
		}
		for _, d := range result.Skipped {
			fmt.Printf("Skipped %s (%s)\n", d.File, d.Reason)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// planAdds turns extraction results into new papers, skipping files with no
// metadata and DOIs already present in existing or earlier in the batch.
func planAdds(results []importer.Result, existing []reference.Paper, newID func() string, now time.Time) ([]reference.Paper, AddResult) {
	working := make([]reference.Paper, len(existing))
	copy(working, existing)

	result := AddResult{Added: []AddDetail{}, Skipped: []AddDetail{}}
	var papers []reference.Paper

	for _, r := range results {
		if !r.OK || r.Metadata.IsEmpty() {
			result.Skipped = append(result.Skipped, AddDetail{File: r.File, Reason: reasonNoMetadata})
			continue
		}
		if r.Metadata.DOI != "" {
			if idx, found := storage.FindByDOI(working, r.Metadata.DOI); found {
				result.Skipped = append(result.Skipped, AddDetail{
					File:   r.File,
					ID:     working[idx].ID,
					Title:  r.Metadata.Title,
					Reason: reasonDuplicate,
				})
				continue
			}
		}

		paper := reference.NewPaper(newID(), r.Metadata, sourceFor(r.Kind), now)
		paper.FileName = r.File
		papers = append(papers, paper)
		working = append(working, paper)
		result.Added = append(result.Added, AddDetail{File: r.File, ID: paper.ID, Title: paper.Title})
	}

	return papers, result
}

func sourceFor(kind probe.Kind) string {
	if kind == probe.KindEPUB {
		return reference.SourceEPUB
	}
	return reference.SourcePDF
}
