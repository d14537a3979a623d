package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/importer"
)

var extractConcurrency int

func init() {
	extractCmd.Flags().IntVarP(&extractConcurrency, "jobs", "j", importer.DefaultConcurrency, "Files to process concurrently")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract metadata from PDF or EPUB files without saving",
	Long: `Extract bibliographic metadata from PDF or EPUB files.

Fields are read from the document itself, then enriched from CrossRef when a
DOI is found, or from OpenAlex by title for PDFs without a usable DOI.
Nothing is written to the library; use 'pmeta add' for that.

Examples:
  pmeta extract paper.pdf
  pmeta extract --human book.epub
  pmeta extract -j 8 *.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	root, _ := findLibrary()
	p := mustNewPipeline(cfg, root)
	defer p.Close()

	files := mustReadFiles(args)
	results := p.importer.ExtractAll(cmd.Context(), files, extractConcurrency)

	if humanOutput {
		for i, r := range results {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(r.File)
			if !r.OK {
				fmt.Println("  could not extract metadata, please enter manually")
				continue
			}
			printMetadataHuman(r.Metadata)
		}
	} else {
		outputJSON(results)
	}
	return nil
}

// mustReadFiles loads each path into an importer.File named by its base name.
func mustReadFiles(paths []string) []importer.File {
	files := make([]importer.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", path, err)
		}
		files = append(files, importer.File{Name: filepath.Base(path), Data: data})
	}
	return files
}
