package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// englishFamily is the set of language codes treated as "looks English".
var englishFamily = map[string]bool{
	"eng":     true,
	"en":      true,
	"english": true,
}

// Search queries the work search endpoint and returns a ranked list of at
// most limit works. It overfetches roughly 2x limit and ranks locally:
// English-looking works first, then the service relevance score, then edition
// count, all descending.
//
// Any failure (network error, non-success status, bad JSON) returns an empty
// list; zero results and an unreachable service are deliberately
// indistinguishable here.
func (c *Client) Search(ctx context.Context, title, author string, limit int) []Work {
	if limit <= 0 {
		return nil
	}

	params := url.Values{}
	if title != "" {
		params.Set("title", title)
	}
	if author != "" {
		params.Set("author", author)
	}
	// Language hint only; results may still mix, so we post-filter too.
	params.Set("language", "eng")
	params.Set("limit", fmt.Sprintf("%d", max(1, limit*2)))

	var payload searchResponse
	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, searchURL, &payload); err != nil {
		slog.Warn("OpenLibrary search failed", "title", title, "author", author, "error", err)
		return nil
	}

	type rankedWork struct {
		work     Work
		englishy bool
		score    float64
		editions int
	}

	ranked := make([]rankedWork, 0, len(payload.Docs))
	for _, doc := range payload.Docs {
		ranked = append(ranked, rankedWork{
			work:     c.workFromDoc(doc),
			englishy: looksEnglish(doc.Language),
			score:    doc.Score,
			editions: doc.EditionCount,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.englishy != b.englishy {
			return a.englishy
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.editions > b.editions
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	works := make([]Work, 0, len(ranked))
	for _, r := range ranked {
		works = append(works, r.work)
	}
	return works
}

// looksEnglish reports whether any declared language code is in the English
// family, or whether the document declares no language at all.
func looksEnglish(codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	for _, code := range codes {
		if englishFamily[strings.ToLower(code)] {
			return true
		}
	}
	return false
}

func (c *Client) workFromDoc(doc searchDoc) Work {
	title := doc.Title
	if title == "" {
		title = doc.TitleSuggest
	}
	if title == "" {
		title = "Untitled"
	}

	author := strings.Join(doc.AuthorName, ", ")
	if author == "" {
		author = "Unknown"
	}

	var coverURL string
	if doc.CoverID > 0 {
		coverURL = fmt.Sprintf("%s/id/%d-L.jpg", c.coverBaseURL, doc.CoverID)
	}

	return Work{
		ID:               strings.TrimPrefix(doc.Key, "/works/"),
		Title:            title,
		AuthorDisplay:    author,
		FirstPublishYear: doc.FirstPublishYear,
		EditionCount:     doc.EditionCount,
		CoverURL:         coverURL,
	}
}
