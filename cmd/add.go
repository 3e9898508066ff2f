package cmd

import (
	"context"
	"fmt"

	"booktracker/internal/covers"
	"booktracker/internal/drive"
	"booktracker/internal/enrich"
	"booktracker/internal/repository"
)

// coverUploader is the Drive-facing surface AddCmd needs.
type coverUploader interface {
	UploadCover(ctx context.Context, sourceURL, name string) string
}

var (
	newCoverCache = func() *covers.Cache {
		return covers.New(covers.Options{})
	}
	newUploader = func() coverUploader {
		return drive.NewUploader(drive.Options{})
	}
)

// AddCmd enriches a book and inserts it into the collection.
type AddCmd struct {
	Title        string `short:"t" help:"Book title" required:""`
	Author       string `short:"a" help:"Author name"`
	ISBN         string `short:"i" help:"ISBN of the edition read"`
	DateFinished string `short:"d" help:"Date the book was finished (YYYY-MM-DD)"`
	NoBackup     bool   `help:"Skip uploading the cover to Google Drive"`
}

func (a *AddCmd) Run() error {
	ctx := context.Background()
	isbn := normalizeISBN(a.ISBN)

	client := newCatalogClient()
	engine := enrich.New(enrich.Options{
		Catalog:   client,
		Generator: newGenerator(),
		UseCache:  true,
	})

	meta := engine.Enrich(ctx, a.Title, a.Author, isbn, enrich.Metadata{})

	coverURL := meta.CoverURL
	if coverURL == "" && isbn != "" {
		coverURL = client.ProbeCoverByISBN(ctx, isbn)
	}

	// Keep a local copy, then back it up remotely. The stored URL prefers
	// the Drive copy so the collection survives catalog link rot.
	if coverURL != "" {
		identifier := covers.Identifier(isbn, coverURL)
		newCoverCache().GetCachedOrFetch(ctx, identifier, coverURL)

		if !a.NoBackup {
			if link := newUploader().UploadCover(ctx, coverURL, identifier+".jpg"); link != "" {
				coverURL = drive.NormalizeLink(link)
			}
		}
	}

	olid := ""
	if isbn != "" {
		olid = client.FetchOLID(ctx, isbn)
	}

	store, err := newStore()
	if err != nil {
		return fmt.Errorf("failed to open book database: %w", err)
	}
	defer func() { _ = store.Close() }()

	id, err := store.Insert(repository.BookRecord{
		Title:             a.Title,
		Author:            a.Author,
		Publisher:         meta.Publisher,
		PubYear:           meta.PubYear,
		Pages:             meta.Pages,
		Genre:             meta.Genre,
		AuthorGender:      meta.AuthorGender,
		FictionNonfiction: meta.FictionNonfiction,
		Tags:              meta.Tags,
		DateFinished:      a.DateFinished,
		CoverURL:          coverURL,
		OpenLibraryID:     olid,
		ISBN:              isbn,
	})
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	fmt.Printf("Added %q (id %d)\n", a.Title, id)
	return nil
}
