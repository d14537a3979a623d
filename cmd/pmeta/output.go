package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matsen/papermeta/internal/reference"
)

// Constants for output formatting.
const (
	DefaultListLimit = 50 // Default limit for search/list commands

	// Title column widths by context
	ListTitleWidth   = 60 // Used in list and search output
	DetailTitleWidth = 72 // Used in single-paper views
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString fits s into width terminal columns, adding "..." if truncated.
// Wide runes (CJK, emoji) count as two columns.
func truncateString(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// padString pads s with spaces to width terminal columns.
func padString(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// yearString renders a year, or "n.d." when unset.
func yearString(year int) string {
	if year == 0 {
		return "n.d."
	}
	return fmt.Sprint(year)
}

// printPaperRow prints a one-line summary: short ID, padded title, year.
func printPaperRow(p reference.Paper) {
	fmt.Printf("%s  %s  %s\n", shortID(p.ID), padString(truncateString(p.Title, ListTitleWidth), ListTitleWidth), yearString(p.Year))
}

// printMetadataHuman prints every set field of m, one per line.
func printMetadataHuman(m reference.Metadata) {
	fields := []struct{ label, value string }{
		{"Title", truncateString(m.Title, DetailTitleWidth)},
		{"Authors", m.Authors},
		{"Year", yearOrEmpty(m.Year)},
		{"DOI", m.DOI},
		{"Journal", m.Journal},
		{"Publisher", m.Publisher},
		{"Volume", m.Volume},
		{"Issue", m.Issue},
		{"Pages", m.Pages},
		{"URL", m.URL},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Printf("  %s %s\n", padString(f.label+":", 10), f.value)
		}
	}
}

func yearOrEmpty(year int) string {
	if year == 0 {
		return ""
	}
	return fmt.Sprint(year)
}

// shortID returns the first 8 characters of an ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// splitIDs parses a comma-separated ID list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
