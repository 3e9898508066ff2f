package openlibrary

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDetailByISBN(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/isbn/9780451169518.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"title":"The Stand","number_of_pages":1153,
			"publishers":["Doubleday"],
			"subjects":["Horror fiction","Plague"],
			"description":"A novel.",
			"covers":[111]
		}`))
	}))

	detail := client.FetchDetail(context.Background(), "9780451169518", "OL1M", "OL1W")
	require.NotNil(t, detail)
	assert.Equal(t, "The Stand", detail.Title)
	assert.Equal(t, "Doubleday", detail.Publisher)
	assert.Equal(t, 1153, detail.Pages)
	assert.Equal(t, []string{"Horror fiction", "Plague"}, detail.Subjects)
	assert.Equal(t, "A novel.", detail.Description)
	require.Len(t, detail.CoverURLs, 1)
	assert.Contains(t, detail.CoverURLs[0], "id/111")
}

func TestFetchDetailFallsBackToEditionThenWork(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/isbn/000.json", "/books/OL1M.json":
			http.NotFound(w, r)
		case "/works/OL1W.json":
			_, _ = w.Write([]byte(`{"title":"The Work","subjects":["Science fiction"],"description":{"value":"Wrapped."}}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))

	detail := client.FetchDetail(context.Background(), "000", "OL1M", "OL1W")
	require.NotNil(t, detail)
	assert.Equal(t, []string{"/isbn/000.json", "/books/OL1M.json", "/works/OL1W.json"}, paths)
	assert.Equal(t, "The Work", detail.Title)
	assert.Equal(t, "Wrapped.", detail.Description)
}

func TestFetchDetailSkipsMissingIdentifiers(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/books/OL1M.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"title":"Edition Only","publishers":["Acme"],"subjects":["History"],"description":"d","covers":[5]}`))
	}))

	detail := client.FetchDetail(context.Background(), "", "/books/OL1M", "")
	require.NotNil(t, detail)
	assert.Equal(t, "Edition Only", detail.Title)
}

func TestFetchDetailHydratesFromWork(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/123.json":
			_, _ = w.Write([]byte(`{"title":"Sparse Edition","publishers":["Acme"],"works":[{"key":"/works/OL9W"}]}`))
		case "/works/OL9W.json":
			_, _ = w.Write([]byte(`{"subjects":["Fiction"],"description":"From the work.","covers":[77]}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))

	detail := client.FetchDetail(context.Background(), "123", "", "")
	require.NotNil(t, detail)
	assert.Equal(t, "Sparse Edition", detail.Title)
	assert.Equal(t, []string{"Fiction"}, detail.Subjects)
	assert.Equal(t, "From the work.", detail.Description)
	require.Len(t, detail.CoverURLs, 1)
	assert.Contains(t, detail.CoverURLs[0], "id/77")
}

func TestFetchDetailNothingResolvable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	assert.Nil(t, client.FetchDetail(context.Background(), "000", "", ""))
	assert.Nil(t, client.FetchDetail(context.Background(), "", "", ""))
}
