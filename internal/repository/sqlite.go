package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// wordsPerPage is the estimate used to derive word_count from pages.
const wordsPerPage = 250

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	author TEXT,
	publisher TEXT,
	pub_year INTEGER,
	pages INTEGER,
	genre TEXT,
	author_gender TEXT,
	fiction_nonfiction TEXT,
	tags TEXT,
	date_finished TEXT,
	cover_url TEXT,
	openlibrary_id TEXT,
	isbn TEXT,
	word_count INTEGER
)`

// updatableColumns is the whitelist for UpdateFields. Anything else is
// rejected so callers cannot smuggle arbitrary SQL in a column name.
var updatableColumns = map[string]bool{
	"title":              true,
	"author":             true,
	"publisher":          true,
	"pub_year":           true,
	"pages":              true,
	"genre":              true,
	"author_gender":      true,
	"fiction_nonfiction": true,
	"tags":               true,
	"date_finished":      true,
	"cover_url":          true,
	"openlibrary_id":     true,
	"isbn":               true,
}

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Connect opens the database and ensures the books table exists.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create books table: %w", err)
	}
	s.db = db
	return nil
}

// ListAll returns every book, most recently finished first.
func (s *SQLiteStore) ListAll() ([]BookRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, title, author, publisher, pub_year, pages, genre,
			author_gender, fiction_nonfiction, tags, date_finished,
			cover_url, openlibrary_id, isbn, word_count
		FROM books
		ORDER BY date_finished DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []BookRecord
	for rows.Next() {
		var r BookRecord
		var tags sql.NullString
		var wordCount sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Title, &r.Author, &r.Publisher, &r.PubYear,
			&r.Pages, &r.Genre, &r.AuthorGender, &r.FictionNonfiction, &tags,
			&r.DateFinished, &r.CoverURL, &r.OpenLibraryID, &r.ISBN, &wordCount); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		r.Tags = splitTags(tags.String)
		r.WordCount = int(wordCount.Int64)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Insert adds a book. The word count is derived from the page count, or
// left NULL when pages are unknown.
func (s *SQLiteStore) Insert(record BookRecord) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO books (
			title, author, publisher, pub_year, pages, genre,
			author_gender, fiction_nonfiction, tags, date_finished,
			cover_url, openlibrary_id, isbn, word_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Title, record.Author, record.Publisher, record.PubYear,
		record.Pages, record.Genre, record.AuthorGender, record.FictionNonfiction,
		joinTags(record.Tags), record.DateFinished, record.CoverURL,
		record.OpenLibraryID, record.ISBN, wordCountFor(record.Pages))
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}
	return result.LastInsertId()
}

// UpdateFields updates a subset of columns on one book. Updating pages
// also refreshes the derived word count.
func (s *SQLiteStore) UpdateFields(id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("column not updatable: %s", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns)+1)
	values := make([]any, 0, len(columns)+2)
	for _, col := range columns {
		value := fields[col]
		if col == "tags" {
			if tags, ok := value.([]string); ok {
				value = joinTags(tags)
			}
		}
		assignments = append(assignments, col+" = ?")
		values = append(values, value)
	}

	if pages, ok := fields["pages"]; ok {
		assignments = append(assignments, "word_count = ?")
		values = append(values, wordCountFor(toInt(pages)))
	}

	values = append(values, id)
	query := fmt.Sprintf("UPDATE books SET %s WHERE id = ?", strings.Join(assignments, ", "))
	if _, err := s.db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to update book %d: %w", id, err)
	}
	return nil
}

// Delete removes a book.
func (s *SQLiteStore) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM books WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete book %d: %w", id, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func wordCountFor(pages int) any {
	if pages <= 0 {
		return nil
	}
	return pages * wordsPerPage
}

func toInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
