package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"booktracker/internal/covers"
	"booktracker/internal/enrich"
	"booktracker/internal/openlibrary"
	"booktracker/internal/repository"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	link  string
	calls int
}

func (s *stubUploader) UploadCover(_ context.Context, _, _ string) string {
	s.calls++
	return s.link
}

type failingGenerator struct {
	t *testing.T
}

func (f *failingGenerator) Generate(context.Context, string) (string, error) {
	f.t.Fatal("generator must not be called when the catalog satisfies the record")
	return "", nil
}

func TestAddCmdRun(t *testing.T) {
	var jpeg bytes.Buffer
	img := imaging.New(60, 90, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	require.NoError(t, imaging.Encode(&jpeg, img, imaging.JPEG))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9780441013593.json":
			fmt.Fprint(w, `{
				"title": "Dune",
				"publishers": ["Ace Books"],
				"number_of_pages": 412,
				"subjects": ["Science fiction", "Deserts"],
				"covers": [42]
			}`)
		case "/id/42-L.jpg":
			_, _ = w.Write(jpeg.Bytes())
		case "/api/books":
			fmt.Fprint(w, `{"ISBN:9780441013593": {"identifiers": {"openlibrary": ["OL893415M"]}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := openlibrary.New(openlibrary.Options{
		BaseURL:      server.URL,
		CoverBaseURL: server.URL,
		HTTPClient:   server.Client(),
		PageRate:     1000,
		DisableCache: true,
	})

	dbPath := filepath.Join(t.TempDir(), "books.db")
	coverDir := t.TempDir()
	uploader := &stubUploader{link: "https://drive.google.com/uc?id=file-77"}

	origClient, origStore, origGen := newCatalogClient, newStore, newGenerator
	origCache, origUploader := newCoverCache, newUploader
	t.Cleanup(func() {
		newCatalogClient, newStore, newGenerator = origClient, origStore, origGen
		newCoverCache, newUploader = origCache, origUploader
	})

	newCatalogClient = func() *openlibrary.Client { return client }
	newStore = func() (repository.Store, error) {
		store := repository.NewSQLiteStore(dbPath)
		return store, store.Connect()
	}
	newGenerator = func() enrich.Generator { return &failingGenerator{t: t} }
	newCoverCache = func() *covers.Cache {
		return covers.New(covers.Options{Dir: coverDir, HTTPClient: server.Client()})
	}
	newUploader = func() coverUploader { return uploader }

	cmd := &AddCmd{
		Title:        "Dune",
		Author:       "Frank Herbert",
		ISBN:         "9780441013593",
		DateFinished: "2026-08-01",
	}
	require.NoError(t, cmd.Run())

	store := repository.NewSQLiteStore(dbPath)
	require.NoError(t, store.Connect())
	defer func() { _ = store.Close() }()

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 1)

	got := books[0]
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Ace Books", got.Publisher)
	assert.Equal(t, 412, got.Pages)
	assert.Equal(t, 412*250, got.WordCount)
	assert.Equal(t, "Fiction", got.FictionNonfiction)
	assert.Equal(t, []string{"Science fiction", "Deserts"}, got.Tags)
	assert.Equal(t, "OL893415M", got.OpenLibraryID)
	assert.Equal(t, "https://drive.google.com/thumbnail?id=file-77&sz=w1000", got.CoverURL,
		"stored cover prefers the normalized backup link")

	assert.Equal(t, 1, uploader.calls)
	cache := covers.New(covers.Options{Dir: coverDir})
	assert.FileExists(t, cache.Path("9780441013593"), "local cover copy cached by isbn")
}

func TestAddCmdNoBackupKeepsCatalogURL(t *testing.T) {
	var jpeg bytes.Buffer
	img := imaging.New(10, 10, color.NRGBA{A: 255})
	require.NoError(t, imaging.Encode(&jpeg, img, imaging.JPEG))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/0000000123.json":
			fmt.Fprint(w, `{"publishers": ["Orbit"], "number_of_pages": 300, "covers": [7]}`)
		case "/id/7-L.jpg":
			_, _ = w.Write(jpeg.Bytes())
		case "/api/books":
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := openlibrary.New(openlibrary.Options{
		BaseURL:      server.URL,
		CoverBaseURL: server.URL,
		HTTPClient:   server.Client(),
		PageRate:     1000,
		DisableCache: true,
	})

	dbPath := filepath.Join(t.TempDir(), "books.db")
	uploader := &stubUploader{link: "https://drive.google.com/uc?id=never"}

	origClient, origStore, origGen := newCatalogClient, newStore, newGenerator
	origCache, origUploader := newCoverCache, newUploader
	t.Cleanup(func() {
		newCatalogClient, newStore, newGenerator = origClient, origStore, origGen
		newCoverCache, newUploader = origCache, origUploader
	})

	newCatalogClient = func() *openlibrary.Client { return client }
	newStore = func() (repository.Store, error) {
		store := repository.NewSQLiteStore(dbPath)
		return store, store.Connect()
	}
	newGenerator = func() enrich.Generator { return &failingGenerator{t: t} }
	newCoverCache = func() *covers.Cache {
		return covers.New(covers.Options{Dir: t.TempDir(), HTTPClient: server.Client()})
	}
	newUploader = func() coverUploader { return uploader }

	cmd := &AddCmd{Title: "Leviathan Wakes", ISBN: "123", NoBackup: true}
	require.NoError(t, cmd.Run())

	assert.Equal(t, 0, uploader.calls)

	store := repository.NewSQLiteStore(dbPath)
	require.NoError(t, store.Connect())
	defer func() { _ = store.Close() }()

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, server.URL+"/id/7-L.jpg", books[0].CoverURL)
	assert.Equal(t, "0000000123", books[0].ISBN, "short identifiers padded to ISBN-10 length")
}
