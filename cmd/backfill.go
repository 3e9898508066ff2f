package cmd

import (
	"context"
	"fmt"
	"strings"

	"booktracker/internal/openlibrary"
	"booktracker/internal/repository"
)

// BackfillCmd groups the maintenance subcommands that fill in missing
// data on books already in the collection.
type BackfillCmd struct {
	Covers BackfillCoversCmd `cmd:"" help:"Find cover images for books missing one"`
	Olids  BackfillOlidsCmd  `cmd:"" help:"Resolve missing OpenLibrary identifiers"`
}

// BackfillCoversCmd probes the covers service for every book holding an
// ISBN but no cover URL.
type BackfillCoversCmd struct{}

func (b *BackfillCoversCmd) Run() error {
	store, err := newStore()
	if err != nil {
		return fmt.Errorf("failed to open book database: %w", err)
	}
	defer func() { _ = store.Close() }()

	updated, err := backfillCovers(context.Background(), store, newCatalogClient())
	if err != nil {
		return err
	}
	fmt.Printf("Backfilled %d cover(s)\n", updated)
	return nil
}

// BackfillOlidsCmd resolves OpenLibrary identifiers for every book
// holding an ISBN but no identifier.
type BackfillOlidsCmd struct{}

func (b *BackfillOlidsCmd) Run() error {
	store, err := newStore()
	if err != nil {
		return fmt.Errorf("failed to open book database: %w", err)
	}
	defer func() { _ = store.Close() }()

	updated, err := backfillOlids(context.Background(), store, newCatalogClient())
	if err != nil {
		return err
	}
	fmt.Printf("Backfilled %d OpenLibrary ID(s)\n", updated)
	return nil
}

func backfillCovers(ctx context.Context, store repository.Store, client *openlibrary.Client) (int, error) {
	books, err := store.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list books: %w", err)
	}

	updated := 0
	for _, book := range books {
		if hasValue(book.CoverURL) || book.ISBN == "" {
			continue
		}

		url := client.ProbeCoverByISBN(ctx, normalizeISBN(book.ISBN))
		if url == "" {
			continue
		}

		if err := store.UpdateFields(book.ID, map[string]any{"cover_url": url}); err != nil {
			return updated, fmt.Errorf("failed to update book %d: %w", book.ID, err)
		}
		updated++
	}
	return updated, nil
}

func backfillOlids(ctx context.Context, store repository.Store, client *openlibrary.Client) (int, error) {
	books, err := store.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list books: %w", err)
	}

	updated := 0
	for _, book := range books {
		if book.OpenLibraryID != "" || book.ISBN == "" {
			continue
		}

		olid := client.FetchOLID(ctx, normalizeISBN(book.ISBN))
		if olid == "" {
			continue
		}

		if err := store.UpdateFields(book.ID, map[string]any{"openlibrary_id": olid}); err != nil {
			return updated, fmt.Errorf("failed to update book %d: %w", book.ID, err)
		}
		updated++
	}
	return updated, nil
}

// hasValue treats the literal string "None" as empty: rows imported from
// older exports carry it where a cover URL is missing.
func hasValue(value string) bool {
	return value != "" && value != "None"
}

// normalizeISBN picks the first of a comma-separated ISBN list and pads
// short identifiers with leading zeros to the ISBN-10 length spreadsheet
// imports tend to strip.
func normalizeISBN(raw string) string {
	isbn, _, _ := strings.Cut(strings.TrimSpace(raw), ",")
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return ""
	}
	for len(isbn) < 10 {
		isbn = "0" + isbn
	}
	return isbn
}
