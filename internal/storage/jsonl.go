// Package storage handles paper persistence in JSONL and SQLite formats,
// and the SQLite-backed lookup cache.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/papermeta/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// MinIDPrefix is the shortest ID prefix FindByID accepts.
const MinIDPrefix = 4

// ReadAll reads all papers from a JSONL file.
func ReadAll(path string) ([]reference.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file returns empty slice
		}
		return nil, fmt.Errorf("opening papers file: %w", err)
	}
	defer f.Close()

	var papers []reference.Paper
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var p reference.Paper
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		papers = append(papers, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading papers file: %w", err)
	}

	return papers, nil
}

// Append adds a paper to the end of a JSONL file.
func Append(path string, p reference.Paper) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening papers file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding paper: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing paper: %w", err)
	}

	return nil
}

// WriteAll writes all papers to a JSONL file, replacing existing content.
func WriteAll(path string, papers []reference.Paper) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating papers file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, p := range papers {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding paper %d: %w", i, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing paper %d: %w", i, err)
		}
	}

	return w.Flush()
}

// FindByDOI searches for a paper by DOI, ignoring case.
func FindByDOI(papers []reference.Paper, doi string) (int, bool) {
	if doi == "" {
		return -1, false
	}
	for i, p := range papers {
		if strings.EqualFold(p.DOI, doi) {
			return i, true
		}
	}
	return -1, false
}

// FindByID finds a paper by exact ID or by an unambiguous ID prefix of at
// least MinIDPrefix characters.
func FindByID(papers []reference.Paper, id string) (int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1, false
	}

	match := -1
	for i, p := range papers {
		if p.ID == id {
			return i, true
		}
		if len(id) >= MinIDPrefix && strings.HasPrefix(p.ID, id) {
			if match >= 0 {
				return -1, false // Ambiguous prefix
			}
			match = i
		}
	}
	return match, match >= 0
}
