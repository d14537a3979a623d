package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/papermeta/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding the queryable paper index.
// The JSONL file stays the source of truth; the index is rebuilt from it.
type DB struct {
	db *sql.DB
}

// selectPaperFields contains the standard field list for SELECT queries.
const selectPaperFields = `id, title, authors, pub_year, doi,
	journal, publisher, volume, issue, pages, url,
	source, file_name, added_at`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT,
			pub_year INTEGER,
			doi TEXT,
			journal TEXT,
			publisher TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			url TEXT,
			source TEXT NOT NULL,
			file_name TEXT,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi IS NOT NULL AND doi != '';

		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id,
			title,
			authors,
			venue,
			pub_year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	papers, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	papersStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO papers (
			id, title, authors, pub_year, doi,
			journal, publisher, volume, issue, pages, url,
			source, file_name, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer papersStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO papers_fts (id, title, authors, venue, pub_year)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, p := range papers {
		_, err = papersStmt.Exec(
			p.ID, p.Title, nullableString(p.Authors), p.Year, nullableString(p.DOI),
			nullableString(p.Journal), nullableString(p.Publisher),
			nullableString(p.Volume), nullableString(p.Issue),
			nullableString(p.Pages), nullableString(p.URL),
			p.Source, nullableString(p.FileName), p.AddedAt.Unix(),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}

		venue := p.Journal
		if venue == "" {
			venue = p.Publisher
		}
		_, err = ftsStmt.Exec(p.ID, p.Title, p.Authors, venue, strconv.Itoa(p.Year))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}

	return len(papers), nil
}

// GetByID retrieves a paper by its ID. Returns nil if not found.
func (d *DB) GetByID(id string) (*reference.Paper, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, id)
	return scanPaper(row)
}

// Search performs a full-text search over titles, authors and venues.
func (d *DB) Search(query string, limit int) ([]reference.Paper, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectPaperFields+`
		FROM papers
		WHERE id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)
		ORDER BY pub_year DESC, title
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// ListAll returns all papers ordered by most recently added, optionally limited.
func (d *DB) ListAll(limit int) ([]reference.Paper, error) {
	query := `SELECT ` + selectPaperFields + ` FROM papers ORDER BY added_at DESC, id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// Count returns the total number of papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(s scanner) (*reference.Paper, error) {
	var p reference.Paper
	var authors, doi, journal, publisher, volume, issue, pages, url, fileName sql.NullString
	var year sql.NullInt64
	var addedAt int64

	err := s.Scan(
		&p.ID, &p.Title, &authors, &year, &doi,
		&journal, &publisher, &volume, &issue, &pages, &url,
		&p.Source, &fileName, &addedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.Authors = authors.String
	p.Year = int(year.Int64)
	p.DOI = doi.String
	p.Journal = journal.String
	p.Publisher = publisher.String
	p.Volume = volume.String
	p.Issue = issue.String
	p.Pages = pages.String
	p.URL = url.String
	p.FileName = fileName.String
	p.AddedAt = time.Unix(addedAt, 0).UTC()

	return &p, nil
}

func scanPapers(rows *sql.Rows) ([]reference.Paper, error) {
	var papers []reference.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			papers = append(papers, *p)
		}
	}
	return papers, rows.Err()
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
