// Package repository persists the book collection in a local SQLite
// database.
package repository

// BookRecord is one row of the book collection. Tags are stored
// comma-joined in the database and split on read.
type BookRecord struct {
	ID                int64
	Title             string
	Author            string
	Publisher         string
	PubYear           int
	Pages             int
	Genre             string
	AuthorGender      string
	FictionNonfiction string
	Tags              []string
	DateFinished      string
	CoverURL          string
	OpenLibraryID     string
	ISBN              string
	WordCount         int
}

// Store defines the interface for book persistence.
type Store interface {
	// Connect establishes a connection and ensures the schema exists
	Connect() error

	// ListAll returns every book, most recently finished first
	ListAll() ([]BookRecord, error)

	// Insert adds a book and returns its assigned ID
	Insert(record BookRecord) (int64, error)

	// UpdateFields updates a subset of columns on one book
	UpdateFields(id int64, fields map[string]any) error

	// Delete removes a book
	Delete(id int64) error

	// Close closes the connection to the data store
	Close() error
}
