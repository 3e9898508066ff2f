package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndListAll(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Insert(BookRecord{
		Title:             "Dune",
		Author:            "Frank Herbert",
		Publisher:         "Chilton Books",
		PubYear:           1965,
		Pages:             412,
		Genre:             "Science fiction",
		AuthorGender:      "Male",
		FictionNonfiction: "Fiction",
		Tags:              []string{"classic", "desert"},
		DateFinished:      "2026-08-01",
		CoverURL:          "https://covers.openlibrary.org/b/id/42-L.jpg",
		OpenLibraryID:     "OL893415M",
		ISBN:              "9780441013593",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 1)

	got := books[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"classic", "desert"}, got.Tags)
	assert.Equal(t, 412*250, got.WordCount, "word count derived from pages")
	assert.Equal(t, "OL893415M", got.OpenLibraryID)
}

func TestInsertWithoutPagesLeavesWordCountEmpty(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert(BookRecord{Title: "Pamphlet"})
	require.NoError(t, err)

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Zero(t, books[0].WordCount)
	assert.Equal(t, []string{}, books[0].Tags)
}

func TestListAllOrdering(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert(BookRecord{Title: "Older", DateFinished: "2025-01-01"})
	require.NoError(t, err)
	_, err = store.Insert(BookRecord{Title: "Newer", DateFinished: "2026-06-15"})
	require.NoError(t, err)
	_, err = store.Insert(BookRecord{Title: "Also newest day", DateFinished: "2026-06-15"})
	require.NoError(t, err)

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Also newest day", books[0].Title, "same date breaks ties by newest id")
	assert.Equal(t, "Newer", books[1].Title)
	assert.Equal(t, "Older", books[2].Title)
}

func TestUpdateFields(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Insert(BookRecord{Title: "Draft", Pages: 100})
	require.NoError(t, err)

	err = store.UpdateFields(id, map[string]any{
		"publisher": "Orbit",
		"pages":     320,
		"tags":      []string{"updated"},
	})
	require.NoError(t, err)

	books, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Orbit", books[0].Publisher)
	assert.Equal(t, 320, books[0].Pages)
	assert.Equal(t, 320*250, books[0].WordCount, "word count follows the new page count")
	assert.Equal(t, []string{"updated"}, books[0].Tags)
	assert.Equal(t, "Draft", books[0].Title, "untouched columns keep their values")
}

func TestUpdateFieldsRejectsUnknownColumn(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Insert(BookRecord{Title: "Safe"})
	require.NoError(t, err)

	err = store.UpdateFields(id, map[string]any{"word_count": 1})
	assert.Error(t, err, "derived columns are not directly updatable")

	err = store.UpdateFields(id, map[string]any{"title = '' WHERE 1=1; --": "x"})
	assert.Error(t, err)
}

func TestUpdateFieldsEmptyMapIsNoop(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Insert(BookRecord{Title: "Untouched"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateFields(id, nil))
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Insert(BookRecord{Title: "Ephemeral"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(id))

	books, err := store.ListAll()
	require.NoError(t, err)
	assert.Empty(t, books)
}
