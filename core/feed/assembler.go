// ABOUTME: Feed assembler composing output documents from records and their bodies
// ABOUTME: Keeps upstream order and resolves publication dates with a fallback

package feed

import (
	"strings"
	"time"

	"pirss-api/core/domain"
	"pirss-api/core/extract"
	timeutil "pirss-api/pkg/utils/time"
)

// Assemble builds a document with one entry per record, in record order.
// bodies[i] is the body of records[i]; missing bodies are empty.
func Assemble(meta domain.FeedMeta, records []domain.ArticleRecord, bodies []string, now time.Time) domain.FeedDocument {
	if meta.Generated.IsZero() {
		meta.Generated = now
	}

	entries := make([]domain.FeedEntry, 0, len(records))
	for i, record := range records {
		var body string
		if i < len(bodies) {
			body = bodies[i]
		}

		entries = append(entries, domain.FeedEntry{
			Title:     record.Title,
			Body:      body,
			URL:       record.Link,
			ID:        record.ID(),
			Published: timeutil.ParseWithDefault(record.PubDate, now),
			Author:    record.Author,
		})
	}

	return domain.FeedDocument{Meta: meta, Entries: entries}
}

// AbsolutizeProxyLinks prefixes relative image proxy sources with baseURL
func AbsolutizeProxyLinks(body, baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return body
	}
	return strings.ReplaceAll(body, `src="`+extract.ProxyPath, `src="`+baseURL+extract.ProxyPath)
}
