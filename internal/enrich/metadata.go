// Package enrich fills in book metadata from the catalog, a generative
// fallback, and caller-supplied values, merged under strict per-field
// precedence.
package enrich

// Metadata is the canonical field set every enrichment call returns. All
// nine keys are always present in the JSON form; values may be empty.
type Metadata struct {
	Publisher         string   `json:"publisher"`
	PubYear           int      `json:"pub_year"`
	Pages             int      `json:"pages"`
	Genre             string   `json:"genre"`
	FictionNonfiction string   `json:"fiction_nonfiction"`
	AuthorGender      string   `json:"author_gender"`
	Tags              []string `json:"tags"`
	ISBN              string   `json:"isbn"`
	CoverURL          string   `json:"cover_url"`

	// Error carries a diagnostic when the generative stage failed; partial
	// data gathered before the failure is still populated.
	Error string `json:"error,omitempty"`
}

// generativePayload is the JSON object the generative backend is asked to
// produce: exactly the seven enrichment fields.
type generativePayload struct {
	Publisher         string   `json:"publisher"`
	PubYear           int      `json:"pub_year"`
	Pages             int      `json:"pages"`
	Genre             string   `json:"genre"`
	FictionNonfiction string   `json:"fiction_nonfiction"`
	AuthorGender      string   `json:"author_gender"`
	Tags              []string `json:"tags"`
}
