// ABOUTME: Lead image and representative paragraph extraction for article summaries
// ABOUTME: Pure functions over a parsed page, independent of fetching and caching

package summary

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"pirss-api/core/domain"
	htmlutil "pirss-api/pkg/utils/html"
)

var imageMetaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:secure_url"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
	`meta[name="image"]`,
}

var imageAttributes = []string{"src", "data-src", "data-original", "data-url", "data-srcset", "srcset"}

var paragraphSelectors = []string{
	"article p",
	"main p",
	`[class*="content"] p`,
	`[class*="Article"] p`,
	`[class*="body"] p`,
	"p",
}

var descriptionSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="twitter:description"]`,
	`meta[name="description"]`,
}

// Extract builds summary data from an article page
func Extract(doc *goquery.Document, pageURL string, config Config) domain.SummaryData {
	paragraphs := Paragraphs(doc, config)
	if len(paragraphs) == 0 {
		if desc := metaDescription(doc); desc != "" {
			paragraphs = []string{htmlutil.Truncate(desc, config.MaxParagraphLength)}
		}
	}

	return domain.SummaryData{
		Paragraphs:   paragraphs,
		LeadImageURL: LeadImage(doc, pageURL),
	}
}

// LeadImage returns the first usable image URL from page metadata or image elements
func LeadImage(doc *goquery.Document, pageURL string) string {
	base, _ := url.Parse(pageURL)

	for _, selector := range imageMetaSelectors {
		content, _ := doc.Find(selector).First().Attr("content")
		if resolved := resolveURL(content, base); resolved != "" {
			return resolved
		}
	}

	var found string
	doc.Find("picture source, article img, main img, img").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		for _, attr := range imageAttributes {
			candidate, ok := el.Attr(attr)
			if !ok {
				continue
			}
			if attr == "srcset" || attr == "data-srcset" {
				candidate = firstSrcsetURL(candidate)
			}
			if resolved := resolveURL(candidate, base); resolved != "" {
				found = resolved
				return false
			}
		}
		return true
	})

	return found
}

// Paragraphs collects up to MaxParagraphs unique paragraph texts. The first
// accepted paragraph must be at least MinFirstParagraph runes long.
func Paragraphs(doc *goquery.Document, config Config) []string {
	paragraphs := make([]string, 0, config.MaxParagraphs)
	seen := make(map[string]bool)

	for _, selector := range paragraphSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := htmlutil.CollapseWhitespace(el.Text())
			if text == "" || seen[text] {
				return true
			}
			if len(paragraphs) == 0 && utf8.RuneCountInString(text) < config.MinFirstParagraph {
				return true
			}

			seen[text] = true
			paragraphs = append(paragraphs, htmlutil.Truncate(text, config.MaxParagraphLength))
			return len(paragraphs) < config.MaxParagraphs
		})

		if len(paragraphs) >= config.MaxParagraphs {
			break
		}
	}

	return paragraphs
}

func metaDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// resolveURL makes candidate absolute. data: URIs are rejected.
func resolveURL(candidate string, base *url.URL) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.HasPrefix(strings.ToLower(candidate), "data:") {
		return ""
	}
	if strings.HasPrefix(candidate, "//") {
		return "https:" + candidate
	}

	ref, err := url.Parse(candidate)
	if err != nil || base == nil {
		return candidate
	}
	return base.ResolveReference(ref).String()
}

func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
