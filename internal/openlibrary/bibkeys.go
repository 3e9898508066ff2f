package openlibrary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// bibkeyEntry is the per-book object of the bibkeys API response.
type bibkeyEntry struct {
	URL         string `json:"url"`
	Identifiers struct {
		OpenLibrary []string `json:"openlibrary"`
	} `json:"identifiers"`
}

// FetchOLID resolves an ISBN to an OpenLibrary identifier through the
// bibkeys API. The explicit identifier list is preferred; when absent the
// OLID is pulled out of the record URL. Returns "" when nothing resolves.
func (c *Client) FetchOLID(ctx context.Context, isbn string) string {
	if isbn == "" {
		return ""
	}

	bibkey := "ISBN:" + isbn
	query := url.Values{}
	query.Set("bibkeys", bibkey)
	query.Set("format", "json")
	query.Set("jscmd", "data")
	reqURL := fmt.Sprintf("%s/api/books?%s", c.baseURL, query.Encode())

	var response map[string]bibkeyEntry
	if err := c.getJSON(ctx, reqURL, &response); err != nil {
		slog.Warn("OpenLibrary bibkeys lookup failed", "isbn", isbn, "error", err)
		return ""
	}

	entry, ok := response[bibkey]
	if !ok {
		return ""
	}

	if len(entry.Identifiers.OpenLibrary) > 0 {
		olid := entry.Identifiers.OpenLibrary[0]
		olid = strings.ReplaceAll(olid, "/works/", "")
		return strings.ReplaceAll(olid, "/books/", "")
	}

	if _, rest, ok := strings.Cut(entry.URL, "/works/"); ok {
		return strings.Trim(rest, "/")
	}
	return ""
}

// ProbeCoverByISBN checks whether the covers service has a real image for
// an ISBN and returns its URL when it does. The default=false parameter
// makes the service 404 instead of serving a placeholder, and tiny bodies
// are rejected as the transparent 1x1 fallback some edge caches return.
func (c *Client) ProbeCoverByISBN(ctx context.Context, isbn string) string {
	if isbn == "" {
		return ""
	}

	probeURL := fmt.Sprintf("%s/isbn/%s-L.jpg?default=false", c.coverBaseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return ""
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Warn("Cover probe failed", "isbn", isbn, "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) <= 500 {
		return ""
	}
	return probeURL
}
