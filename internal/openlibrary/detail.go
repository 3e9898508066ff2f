package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"booktracker/internal/cache"
)

// FetchDetail resolves a best-effort structured record for a single book.
// Identifiers are tried in order - ISBN, then edition OLID, then work OLID -
// stopping at the first successful lookup. Missing identifiers are skipped,
// not errors. Nothing resolvable returns nil.
//
// Results are cached in the SQLite API cache keyed by the first identifier
// present, so repeated enrichment runs stay off the network.
func (c *Client) FetchDetail(ctx context.Context, isbn, editionID, workID string) *Detail {
	key := firstNonEmpty(isbn, editionID, workID)
	if key == "" {
		return nil
	}

	if !c.useCache {
		return c.fetchDetail(ctx, isbn, editionID, workID)
	}

	detail, _, err := cache.GetOrFetch("openlibrary_cache", key, func() (*Detail, error) {
		d := c.fetchDetail(ctx, isbn, editionID, workID)
		if d == nil {
			return nil, fmt.Errorf("no detail found for %s", key)
		}
		return d, nil
	})
	if err != nil {
		return nil
	}
	return detail
}

func (c *Client) fetchDetail(ctx context.Context, isbn, editionID, workID string) *Detail {
	if isbn != "" {
		var ed editionJSON
		url := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, strings.TrimSpace(isbn))
		if err := c.getJSON(ctx, url, &ed); err == nil {
			return c.detailFromEdition(ctx, ed)
		} else {
			slog.Debug("ISBN detail lookup failed", "isbn", isbn, "error", err)
		}
	}

	if editionID != "" {
		olid := strings.TrimPrefix(strings.TrimSpace(editionID), "/books/")
		var ed editionJSON
		url := fmt.Sprintf("%s/books/%s.json", c.baseURL, olid)
		if err := c.getJSON(ctx, url, &ed); err == nil {
			return c.detailFromEdition(ctx, ed)
		} else {
			slog.Debug("Edition detail lookup failed", "edition", editionID, "error", err)
		}
	}

	if workID != "" {
		olid := strings.TrimPrefix(strings.TrimSpace(workID), "/works/")
		var wk workJSON
		url := fmt.Sprintf("%s/works/%s.json", c.baseURL, olid)
		if err := c.getJSON(ctx, url, &wk); err == nil {
			return &Detail{
				Title:       wk.Title,
				Subjects:    wk.Subjects,
				Description: string(wk.Description),
				CoverURLs:   c.coverURLsFromIDs(wk.Covers),
			}
		} else {
			slog.Debug("Work detail lookup failed", "work", workID, "error", err)
		}
	}

	return nil
}

// detailFromEdition builds a Detail from an edition payload, hydrating
// description, subjects and covers from the parent work when the edition
// itself is sparse.
func (c *Client) detailFromEdition(ctx context.Context, ed editionJSON) *Detail {
	detail := &Detail{
		Title:       ed.Title,
		Pages:       ed.NumberOfPages,
		Subjects:    ed.Subjects,
		Description: string(ed.Description),
		CoverURLs:   c.coverURLsFromIDs(ed.Covers),
	}
	if len(ed.Publishers) > 0 {
		detail.Publisher = ed.Publishers[0]
	}

	if detail.Description != "" && len(detail.Subjects) > 0 && len(detail.CoverURLs) > 0 {
		return detail
	}
	if len(ed.Works) == 0 || ed.Works[0].Key == "" {
		return detail
	}

	var wk workJSON
	url := fmt.Sprintf("%s%s.json", c.baseURL, ed.Works[0].Key)
	if err := c.getJSON(ctx, url, &wk); err != nil {
		slog.Debug("Work hydration failed", "work", ed.Works[0].Key, "error", err)
		return detail
	}

	if detail.Description == "" {
		detail.Description = string(wk.Description)
	}
	if len(detail.Subjects) == 0 {
		detail.Subjects = wk.Subjects
	}
	if len(detail.CoverURLs) == 0 {
		detail.CoverURLs = c.coverURLsFromIDs(wk.Covers)
	}
	return detail
}

func (c *Client) coverURLsFromIDs(ids []int) []string {
	var urls []string
	for _, id := range ids {
		if id > 0 {
			urls = append(urls, fmt.Sprintf("%s/id/%d-L.jpg", c.coverBaseURL, id))
		}
	}
	return urls
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
