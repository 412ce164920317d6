// ABOUTME: ArticleRecord domain model represents one upstream feed entry
// ABOUTME: Carries the fields needed to enrich an entry and identify it downstream

package domain

import "strings"

// ArticleRecord is a single entry parsed from an upstream feed.
// Records are produced per generation run and discarded once the document is built.
type ArticleRecord struct {
	// Title is the entry headline
	Title string

	// Link is the canonical article URL
	Link string

	// PubDate is the raw upstream publication date, empty when absent
	PubDate string

	// Author is the entry author, empty when absent
	Author string

	// GUID is the upstream identifier, empty when absent
	GUID string

	// Description is the upstream entry description (may contain HTML)
	Description string

	// CommentsURL links to the discussion thread for the entry, if any
	CommentsURL string
}

// ID returns the effective identifier of the record: the GUID when present,
// otherwise the link.
func (a ArticleRecord) ID() string {
	if guid := strings.TrimSpace(a.GUID); guid != "" {
		return guid
	}
	return a.Link
}

// IsValid reports whether the record can be enriched at all
func (a ArticleRecord) IsValid() bool {
	return strings.TrimSpace(a.Link) != ""
}
