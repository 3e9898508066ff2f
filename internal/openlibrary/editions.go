package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first successful parse wins.
// The list mirrors the date shapes OpenLibrary actually serves.
var dateLayouts = []string{
	"2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"January 2006",
	"Jan 2006",
}

// sentinelLatest sorts unparsable-but-present dates after every valid date.
var sentinelLatest = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// ParsePublishDate parses a human publish date. An empty string yields the
// zero time (sorts first); a non-empty string no layout matches yields a
// far-future sentinel (sorts last, but the edition is kept).
func ParsePublishDate(raw string) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	return sentinelLatest
}

// FetchEditions lists editions for a work: paginated fetch of every edition,
// English-or-unspecified language filter, ascending sort by parsed publish
// date, truncated to limit.
//
// Pagination requests fixed-size pages until a page comes back empty or the
// accumulated count reaches the service-reported total; a politeness delay
// separates page requests. A failed page request stops pagination with
// whatever was already accumulated - there is no retry.
func (c *Client) FetchEditions(ctx context.Context, workID string, limit int) []Edition {
	workID = strings.TrimPrefix(strings.TrimSpace(workID), "/works/")
	if workID == "" || limit <= 0 {
		return nil
	}

	entries := c.fetchAllEditionPages(ctx, workID)

	editions := make([]Edition, 0, len(entries))
	for _, entry := range entries {
		langs := entry.languageCodes()
		if !keepLanguage(langs) {
			continue
		}
		ed := c.editionFromEntry(workID, entry)
		ed.Languages = langs
		ed.sortDate = ParsePublishDate(ed.PublishDate)
		editions = append(editions, ed)
	}

	sort.SliceStable(editions, func(i, j int) bool {
		return editions[i].sortDate.Before(editions[j].sortDate)
	})

	if len(editions) > limit {
		editions = editions[:limit]
	}

	// Resolve author names only for the editions we actually return.
	for i := range editions {
		editions[i].Authors = c.authorNames(ctx, editions[i].authorRefs)
	}

	return editions
}

func (c *Client) fetchAllEditionPages(ctx context.Context, workID string) []editionEntry {
	var (
		all    []editionEntry
		offset int
		total  = -1
	)

	for total < 0 || offset < total {
		if err := c.limiter.Wait(ctx); err != nil {
			slog.Warn("Edition pagination interrupted", "work", workID, "error", err)
			break
		}

		url := fmt.Sprintf("%s/works/%s/editions.json?limit=%d&offset=%d",
			c.baseURL, workID, editionsPageSize, offset)

		var page editionsResponse
		if err := c.getJSON(ctx, url, &page); err != nil {
			// No retry: keep whatever was already accumulated.
			slog.Warn("Edition page fetch failed, stopping pagination",
				"work", workID, "offset", offset, "error", err)
			break
		}

		if len(page.Entries) == 0 {
			break
		}

		all = append(all, page.Entries...)
		total = page.Size
		offset += len(page.Entries)
	}

	return all
}

// keepLanguage retains editions declaring an English-family code or no
// language at all. An empty set means "unspecified", not "non-English".
func keepLanguage(codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	for _, code := range codes {
		if englishFamily[code] {
			return true
		}
	}
	return false
}

func (e editionEntry) languageCodes() []string {
	var codes []string
	for _, ref := range e.Languages {
		if code := ref.tail(); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func (c *Client) editionFromEntry(workID string, entry editionEntry) Edition {
	title := entry.Title
	if title == "" {
		title = entry.FullTitle
	}

	pages := entry.NumberOfPages
	if pages == 0 {
		pages = pagesFromPagination(entry.Pagination)
	}

	return Edition{
		WorkID:      workID,
		Title:       title,
		Publisher:   strings.Join(entry.Publishers, ", "),
		PublishDate: entry.PublishDate,
		PublishYear: yearOf(ParsePublishDate(entry.PublishDate)),
		Pages:       pages,
		ISBN:        pickISBN(entry.ISBN13, entry.ISBN10),
		CoverURL:    c.coverURLForEntry(entry),
		authorRefs:  entry.Authors,
	}
}

// yearOf maps both sentinel dates back to "unknown".
func yearOf(t time.Time) int {
	if t.IsZero() || t.Equal(sentinelLatest) {
		return 0
	}
	return t.Year()
}

// pagesFromPagination salvages a page count from free-text pagination
// fields like "xii, 224 p.".
func pagesFromPagination(pagination string) int {
	best := 0
	for _, field := range strings.FieldsFunc(pagination, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if n, err := strconv.Atoi(field); err == nil && n > best {
			best = n
		}
	}
	return best
}

// pickISBN prefers a 13-digit value over a 10-digit one, accepts list or
// scalar source fields, and returns the first non-empty trimmed value.
func pickISBN(isbn13, isbn10 []string) string {
	for _, candidates := range [][]string{isbn13, isbn10} {
		for _, raw := range candidates {
			if isbn := strings.TrimSpace(raw); isbn != "" {
				return isbn
			}
		}
	}
	return ""
}

// coverURLForEntry derives a cover URL via the fallback chain: explicit cover
// id, then the edition OLID, then the ISBN. When none apply the result is
// empty - never a placeholder URL.
func (c *Client) coverURLForEntry(entry editionEntry) string {
	if len(entry.Covers) > 0 && entry.Covers[0] > 0 {
		return fmt.Sprintf("%s/id/%d-L.jpg", c.coverBaseURL, entry.Covers[0])
	}
	if olid := strings.TrimPrefix(entry.Key, "/books/"); olid != "" {
		return fmt.Sprintf("%s/olid/%s-M.jpg", c.coverBaseURL, olid)
	}
	if isbn := pickISBN(entry.ISBN13, entry.ISBN10); isbn != "" {
		return fmt.Sprintf("%s/isbn/%s-L.jpg", c.coverBaseURL, isbn)
	}
	return ""
}

// authorNames resolves author display names, soft-failing to whatever
// subset could be fetched.
func (c *Client) authorNames(ctx context.Context, refs []keyRef) string {
	var names []string
	for _, ref := range refs {
		if name := c.fetchAuthorName(ctx, ref.Key); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// fetchAuthorName resolves /authors/{olid} to a display name, returning ""
// on any failure.
func (c *Client) fetchAuthorName(ctx context.Context, authorKey string) string {
	if authorKey == "" {
		return ""
	}

	var author authorJSON
	url := fmt.Sprintf("%s%s.json", c.baseURL, authorKey)
	if err := c.getJSON(ctx, url, &author); err != nil {
		slog.Debug("Author lookup failed", "key", authorKey, "error", err)
		return ""
	}
	return author.Name
}
