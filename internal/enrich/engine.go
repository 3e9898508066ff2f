package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"booktracker/internal/cache"
	"booktracker/internal/openlibrary"
)

// CatalogDetailer is the catalog-side dependency of the engine: a
// best-effort single-item detail lookup.
type CatalogDetailer interface {
	FetchDetail(ctx context.Context, isbn, editionID, workID string) *openlibrary.Detail
}

// Engine orchestrates the three enrichment stages: catalog detail lookup,
// generative fallback, and the per-field precedence merge with
// caller-supplied existing values.
type Engine struct {
	catalog  CatalogDetailer
	gen      Generator
	useCache bool
}

// Options configures an Engine. A nil Generator disables the generative
// fallback stage entirely.
type Options struct {
	Catalog   CatalogDetailer
	Generator Generator
	// UseCache stores parsed generative responses in the SQLite API cache.
	UseCache bool
}

// New creates an enrichment engine.
func New(opts Options) *Engine {
	return &Engine{
		catalog:  opts.Catalog,
		gen:      opts.Generator,
		useCache: opts.UseCache,
	}
}

// Enrich resolves metadata for a book and merges it with existing values.
// Every stage is optional: no ISBN skips the catalog stage, a satisfied
// record skips the generative stage. The merge is a per-field coalesce -
// a non-empty existing value always wins over an enriched one.
//
// The returned Metadata always carries every canonical field. When the
// generative stage fails its diagnostic lands in the Error field and the
// data gathered before the failure is returned anyway.
func (e *Engine) Enrich(ctx context.Context, title, author, isbn string, existing Metadata) Metadata {
	var enriched Metadata

	// Stage 1: catalog lookup by ISBN.
	if isbn != "" && e.catalog != nil {
		if d := e.catalog.FetchDetail(ctx, isbn, "", ""); d != nil && detailUsable(d) {
			enriched.Publisher = d.Publisher
			enriched.Pages = d.Pages
			enriched.FictionNonfiction = classifySubjects(d.Subjects)
			enriched.Tags = firstN(d.Subjects, 5)
			if len(d.CoverURLs) > 0 {
				enriched.CoverURL = d.CoverURLs[0]
			}
			// PubYear stays unset: the detail endpoint is unreliable for it.
		}
	}
	enriched.ISBN = isbn

	// Stage 2: generative fallback, only when core fields are still missing.
	if enriched.Publisher == "" || enriched.Pages == 0 {
		if e.gen != nil {
			payload, err := e.generate(ctx, title, author, isbn)
			if err != nil {
				slog.Warn("Generative enrichment failed", "title", title, "error", err)
				enriched.Error = err.Error()
			} else {
				overlay(&enriched, payload)
			}
		}
	}

	// Stage 3: per-field coalesce with existing values.
	return mergeExisting(existing, enriched)
}

// generate runs the generative backend, sanitizes and parses the response.
// Parsed payloads are cached keyed by identifier so re-running enrichment on
// the same library does not re-query the model.
func (e *Engine) generate(ctx context.Context, title, author, isbn string) (generativePayload, error) {
	fetch := func() (generativePayload, error) {
		raw, err := e.gen.Generate(ctx, metadataPrompt(title, author))
		if err != nil {
			return generativePayload{}, err
		}

		var payload generativePayload
		if err := json.Unmarshal([]byte(CleanModelJSON(raw)), &payload); err != nil {
			return generativePayload{}, fmt.Errorf("failed to parse generative response: %w", err)
		}
		return payload, nil
	}

	if !e.useCache {
		return fetch()
	}

	key := fmt.Sprintf("%s|%s|%s", isbn, title, author)
	payload, _, err := cache.GetOrFetch("enrichment_cache", key, fetch)
	return payload, err
}

// detailUsable reports whether the catalog stage produced anything worth
// deriving fields from.
func detailUsable(d *openlibrary.Detail) bool {
	return d.Publisher != "" || d.Pages > 0 || len(d.Subjects) > 0
}

// classifySubjects derives the fiction/non-fiction flag: any subject
// containing "fiction" wins, any subjects at all default to non-fiction,
// no subjects leave the field empty.
func classifySubjects(subjects []string) string {
	if len(subjects) == 0 {
		return ""
	}
	if strings.Contains(strings.ToLower(strings.Join(subjects, ",")), "fiction") {
		return "Fiction"
	}
	return "Non-fiction"
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

// overlay fills enriched fields from the generative payload. Non-empty
// payload values win over stage-1 values; empty ones never clobber data
// already gathered.
func overlay(enriched *Metadata, payload generativePayload) {
	if payload.Publisher != "" {
		enriched.Publisher = payload.Publisher
	}
	if payload.PubYear != 0 {
		enriched.PubYear = payload.PubYear
	}
	if payload.Pages != 0 {
		enriched.Pages = payload.Pages
	}
	if payload.Genre != "" {
		enriched.Genre = payload.Genre
	}
	if payload.FictionNonfiction != "" {
		enriched.FictionNonfiction = payload.FictionNonfiction
	}
	if payload.AuthorGender != "" {
		enriched.AuthorGender = payload.AuthorGender
	}
	if len(payload.Tags) > 0 {
		enriched.Tags = payload.Tags
	}
}

// mergeExisting is the stage-3 coalesce: for every canonical field
// independently, the existing value wins when non-empty, otherwise the
// enriched value is used. Never a whole-record overwrite.
func mergeExisting(existing, enriched Metadata) Metadata {
	out := Metadata{
		Publisher:         coalesce(existing.Publisher, enriched.Publisher),
		PubYear:           coalesceInt(existing.PubYear, enriched.PubYear),
		Pages:             coalesceInt(existing.Pages, enriched.Pages),
		Genre:             coalesce(existing.Genre, enriched.Genre),
		FictionNonfiction: coalesce(existing.FictionNonfiction, enriched.FictionNonfiction),
		AuthorGender:      coalesce(existing.AuthorGender, enriched.AuthorGender),
		Tags:              existing.Tags,
		ISBN:              coalesce(existing.ISBN, enriched.ISBN),
		CoverURL:          coalesce(existing.CoverURL, enriched.CoverURL),
		Error:             enriched.Error,
	}
	if len(out.Tags) == 0 {
		out.Tags = enriched.Tags
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func coalesce(existing, fallback string) string {
	if existing != "" {
		return existing
	}
	return fallback
}

func coalesceInt(existing, fallback int) int {
	if existing != 0 {
		return existing
	}
	return fallback
}
