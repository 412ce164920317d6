// ABOUTME: HTML composition of summary bodies and their fallbacks
// ABOUTME: Every interpolated value is escaped

package summary

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"pirss-api/core/domain"
	htmlutil "pirss-api/pkg/utils/html"
)

const (
	noSummaryText = "We could not extract a summary, please visit the original article."
	linkAttrs     = `target="_blank" rel="noopener noreferrer"`
)

// Compose renders the lead image, paragraphs and links of a summary
func Compose(record domain.ArticleRecord, data domain.SummaryData, discussionSite string) string {
	parts := make([]string, 0, len(data.Paragraphs)+3)

	if data.HasImage() {
		parts = append(parts, fmt.Sprintf(`<p><img src="%s" alt="Preview image" /></p>`, html.EscapeString(data.LeadImageURL)))
	}

	if len(data.Paragraphs) > 0 {
		for _, paragraph := range data.Paragraphs {
			parts = append(parts, "<p>"+html.EscapeString(paragraph)+"</p>")
		}
	} else {
		parts = append(parts, "<p>"+noSummaryText+"</p>")
	}

	parts = append(parts, fmt.Sprintf(`<p><a href="%s" %s>Read the original on %s</a></p>`,
		html.EscapeString(record.Link), linkAttrs, html.EscapeString(hostname(record.Link))))

	if link := discussionLink(record, discussionSite); link != "" {
		parts = append(parts, link)
	}

	return strings.Join(parts, "\n")
}

// Fallback renders the upstream description with links back to the article
func Fallback(record domain.ArticleRecord, discussionSite string) string {
	parts := make([]string, 0, 3)

	if desc := htmlutil.StripCDATA(record.Description); desc != "" {
		parts = append(parts, desc)
	}

	parts = append(parts, fmt.Sprintf(`<p><a href="%s" %s>Read the original article</a></p>`,
		html.EscapeString(record.Link), linkAttrs))

	if link := discussionLink(record, discussionSite); link != "" {
		parts = append(parts, link)
	}

	return strings.Join(parts, "\n")
}

func discussionLink(record domain.ArticleRecord, site string) string {
	if record.CommentsURL == "" {
		return ""
	}
	return fmt.Sprintf(`<p><a href="%s" %s>Join the discussion on %s</a></p>`,
		html.EscapeString(record.CommentsURL), linkAttrs, html.EscapeString(site))
}

func hostname(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "source"
	}
	return u.Hostname()
}
