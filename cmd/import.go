package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"booktracker/internal/csvutil"
	"booktracker/internal/repository"
)

// ImportCmd bulk-loads books from a CSV export into the collection.
type ImportCmd struct {
	File        string `short:"f" help:"Path to the CSV file to import" required:""`
	SkipInvalid bool   `help:"Skip rows that cannot be parsed instead of aborting" default:"true"`
}

func (i *ImportCmd) Run() error {
	books, err := csvutil.ProcessCSV(i.File, bookFromRow, csvutil.ProcessorOptions{
		SkipInvalid: i.SkipInvalid,
	})
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}

	store, err := newStore()
	if err != nil {
		return fmt.Errorf("failed to open book database: %w", err)
	}
	defer func() { _ = store.Close() }()

	imported := 0
	for _, book := range books {
		if _, err := store.Insert(book); err != nil {
			return fmt.Errorf("failed to insert %q: %w", book.Title, err)
		}
		imported++
	}

	fmt.Printf("Imported %d book(s)\n", imported)
	return nil
}

// bookFromRow maps a header-keyed CSV row onto a book record. Numeric
// columns tolerate empty cells; a row without a title is invalid.
func bookFromRow(row csvutil.Row) (repository.BookRecord, error) {
	title := strings.TrimSpace(row.Get("title"))
	if title == "" {
		return repository.BookRecord{}, fmt.Errorf("row has no title")
	}

	return repository.BookRecord{
		Title:             title,
		Author:            row.Get("author"),
		Publisher:         row.Get("publisher"),
		PubYear:           intColumn(row, "pub_year"),
		Pages:             intColumn(row, "pages"),
		Genre:             row.Get("genre"),
		AuthorGender:      row.Get("author_gender"),
		FictionNonfiction: row.Get("fiction_nonfiction"),
		Tags:              tagsColumn(row.Get("tags")),
		DateFinished:      row.Get("date_finished"),
		CoverURL:          row.Get("cover_url"),
		OpenLibraryID:     row.Get("openlibrary_id"),
		ISBN:              normalizeISBN(row.Get("isbn")),
	}, nil
}

func intColumn(row csvutil.Row, column string) int {
	value := strings.TrimSpace(row.Get(column))
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func tagsColumn(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
