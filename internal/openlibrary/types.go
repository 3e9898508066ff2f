package openlibrary

import (
	"encoding/json"
	"strings"
	"time"
)

// Work represents one search hit: a logical book title independent of any
// specific printed edition.
type Work struct {
	ID               string `json:"work_id"`
	Title            string `json:"title"`
	AuthorDisplay    string `json:"author"`
	FirstPublishYear int    `json:"first_publish_year,omitempty"`
	EditionCount     int    `json:"edition_count,omitempty"`
	CoverURL         string `json:"cover_url,omitempty"`
}

// Edition represents one specific printed version of a Work.
type Edition struct {
	WorkID      string   `json:"work_id"`
	Title       string   `json:"title"`
	Publisher   string   `json:"publisher"`
	PublishDate string   `json:"publish_date"`
	PublishYear int      `json:"publish_year,omitempty"`
	Pages       int      `json:"pages,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Authors     string   `json:"authors,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`

	sortDate   time.Time
	authorRefs []keyRef
}

// Detail is a best-effort structured record for a single book, resolved from
// an ISBN, edition OLID or work OLID.
type Detail struct {
	Title       string   `json:"title"`
	Publisher   string   `json:"publisher"`
	Pages       int      `json:"pages"`
	Subjects    []string `json:"subjects"`
	Description string   `json:"description"`
	CoverURLs   []string `json:"cover_urls"`
}

// searchResponse models the /search.json payload.
type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	TitleSuggest     string   `json:"title_suggest"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	EditionCount     int      `json:"edition_count"`
	CoverID          int      `json:"cover_i"`
	Language         []string `json:"language"`
	Score            float64  `json:"_score"`
}

// editionsResponse models one page of /works/{olid}/editions.json.
type editionsResponse struct {
	Size    int            `json:"size"`
	Entries []editionEntry `json:"entries"`
}

type editionEntry struct {
	Key           string     `json:"key"`
	Title         string     `json:"title"`
	FullTitle     string     `json:"full_title"`
	Publishers    []string   `json:"publishers"`
	PublishDate   string     `json:"publish_date"`
	NumberOfPages int        `json:"number_of_pages"`
	Pagination    string     `json:"pagination"`
	ISBN13        stringList `json:"isbn_13"`
	ISBN10        stringList `json:"isbn_10"`
	Covers        []int      `json:"covers"`
	Languages     []keyRef   `json:"languages"`
	Authors       []keyRef   `json:"authors"`
}

// editionJSON models /isbn/{isbn}.json and /books/{olid}.json.
type editionJSON struct {
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	PublishDate   string     `json:"publish_date"`
	NumberOfPages int        `json:"number_of_pages"`
	Publishers    []string   `json:"publishers"`
	Subjects      []string   `json:"subjects"`
	Description   flexString `json:"description"`
	Covers        []int      `json:"covers"`
	Works         []keyRef   `json:"works"`
}

// workJSON models /works/{olid}.json.
type workJSON struct {
	Title       string     `json:"title"`
	Subjects    []string   `json:"subjects"`
	Description flexString `json:"description"`
	Covers      []int      `json:"covers"`
}

type authorJSON struct {
	Name string `json:"name"`
}

// keyRef is the ubiquitous {"key": "/languages/eng"} reference shape.
type keyRef struct {
	Key string `json:"key"`
}

// tail returns the last path segment of the reference, lowercased.
func (r keyRef) tail() string {
	key := strings.TrimSpace(r.Key)
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		key = key[idx+1:]
	}
	return strings.ToLower(key)
}

// stringList accepts both a JSON array of strings and a bare string;
// identifier fields show up in either shape in the wild.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if strings.TrimSpace(single) == "" {
		*s = nil
		return nil
	}
	*s = []string{single}
	return nil
}

// flexString accepts both "text" and {"value": "text"}; work and edition
// descriptions use either form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*f = flexString(plain)
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*f = flexString(wrapped.Value)
	return nil
}
