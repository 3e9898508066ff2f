// Package drive uploads cover images to Google Drive as a remote backup
// and normalizes Drive sharing links into direct-render form.
package drive

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeLink rewrites any recognized Drive link form into the
// thumbnail endpoint, which renders directly in an <img> tag. Links the
// file ID cannot be extracted from pass through unchanged.
func NormalizeLink(link string) string {
	id := fileIDFromLink(link)
	if id == "" {
		return link
	}
	return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w1000", id)
}

// fileIDFromLink extracts the Drive file ID from the sharing link forms
// in circulation: uc?id=, open?id=, thumbnail?id= and /file/d/<id>/.
func fileIDFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || !strings.Contains(u.Host, "drive.google.com") {
		return ""
	}

	if id := u.Query().Get("id"); id != "" {
		return id
	}

	if rest, ok := strings.CutPrefix(u.Path, "/file/d/"); ok {
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			rest = rest[:idx]
		}
		return rest
	}

	return ""
}
