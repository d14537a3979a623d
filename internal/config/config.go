// Package config handles library layout and global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	LibraryDir      = ".pmeta"
	PapersFile      = "papers.jsonl"
	CacheDir        = "cache"
	DBFile          = "papers.db"
	LookupCacheFile = "lookups.db"
)

// LibraryPath returns the path to the .pmeta directory from a root path.
func LibraryPath(root string) string {
	return filepath.Join(root, LibraryDir)
}

// PapersPath returns the path to papers.jsonl from a root path.
func PapersPath(root string) string {
	return filepath.Join(root, LibraryDir, PapersFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, LibraryDir, CacheDir)
}

// DBPath returns the path to the paper index database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, LibraryDir, CacheDir, DBFile)
}

// LookupCachePath returns the path to the lookup cache database from a root path.
func LookupCachePath(root string) string {
	return filepath.Join(root, LibraryDir, CacheDir, LookupCacheFile)
}

// IsLibrary checks if the given path contains a paper library.
func IsLibrary(root string) bool {
	info, err := os.Stat(LibraryPath(root))
	return err == nil && info.IsDir()
}

// FindLibrary walks up from the given path to find a paper library.
// Returns the library root path or an error if not found.
func FindLibrary(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsLibrary(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w (no %s directory found)", ErrNoLibrary, LibraryDir)
		}
		abs = parent
	}
}

// InitLibrary creates the library directory layout under root.
// It is safe to call on an existing library.
func InitLibrary(root string) error {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating library: %w", err)
	}

	papers := PapersPath(root)
	if _, err := os.Stat(papers); os.IsNotExist(err) {
		if err := os.WriteFile(papers, nil, 0644); err != nil {
			return fmt.Errorf("creating %s: %w", PapersFile, err)
		}
	}

	// The cache is ephemeral and never committed.
	gitignore := filepath.Join(LibraryPath(root), ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		if err := os.WriteFile(gitignore, []byte(CacheDir+"/\n"), 0644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
