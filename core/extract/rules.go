// ABOUTME: Candidate rules of the extraction cascade, evaluated in priority order
// ABOUTME: Selector, JSON-LD, article, main and paragraph rules share one sufficiency predicate

package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	htmlutil "pirss-api/pkg/utils/html"
)

// Page is a parsed article page
type Page struct {
	Doc *goquery.Document
	URL *url.URL
}

// Rule locates a content fragment in a page. Find reports false when the
// rule does not apply or its match is insufficient.
type Rule struct {
	Name string
	Find func(page *Page) (string, bool)
}

// Selectors are tried from most site-specific to most generic
var Selectors = []string{
	".article__main__content",
	".article__main__wrapper",
	".article-body",
	".article-detail",
	".article-content",
	".content-body",
	".post-content",
	".entry-content",

	`[class*="article__main__"]`,
	`[class*="article-body"]`,
	`[class*="article-content"]`,
	`[class*="post-content"]`,
	"article .body",
	"article .content",
	"article > div",
	"main article",
	`[data-type="article"]`,

	".ql-editor",
	".markdown-body",

	`[class*="content"]`,
	`[class*="article"]`,
	`[class*="post"]`,
}

var articleTypes = map[string]bool{
	"Article":     true,
	"NewsArticle": true,
	"BlogPosting": true,
}

// sufficient reports whether sel holds real content: at least one paragraph
// or figure, or more than minText non-whitespace runes
func sufficient(sel *goquery.Selection, minText int) (string, bool) {
	fragment, err := sel.Html()
	if err != nil || strings.TrimSpace(fragment) == "" {
		return "", false
	}
	if sel.Find("p, figure").Length() > 0 {
		return fragment, true
	}
	if htmlutil.VisibleLength(sel.Text()) > minText {
		return fragment, true
	}
	return "", false
}

// selectorRule accepts the first sufficient element matching selector
func selectorRule(selector string, minText int) Rule {
	return Rule{
		Name: selector,
		Find: func(page *Page) (string, bool) {
			var content string
			page.Doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if fragment, ok := sufficient(s, minText); ok {
					content = fragment
					return false
				}
				return true
			})
			return content, content != ""
		},
	}
}

// containerRule accepts the first element of tag when sufficient
func containerRule(tag string, minText int) Rule {
	return Rule{
		Name: tag,
		Find: func(page *Page) (string, bool) {
			return sufficient(page.Doc.Find(tag).First(), minText)
		},
	}
}

// jsonLDRule reads articleBody from embedded structured data
func jsonLDRule() Rule {
	return Rule{
		Name: "json-ld",
		Find: func(page *Page) (string, bool) {
			var body string
			page.Doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				var data interface{}
				if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
					return true
				}
				body = articleBody(data)
				return body == ""
			})
			return body, body != ""
		},
	}
}

// articleBody walks a JSON-LD value, descending into arrays and @graph
func articleBody(node interface{}) string {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			if body := articleBody(item); body != "" {
				return body
			}
		}
	case map[string]interface{}:
		if isArticleType(v["@type"]) {
			if body, ok := v["articleBody"].(string); ok && strings.TrimSpace(body) != "" {
				return body
			}
		}
		if graph, ok := v["@graph"]; ok {
			return articleBody(graph)
		}
	}
	return ""
}

func isArticleType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && articleTypes[s] {
				return true
			}
		}
	}
	return false
}

// paragraphsRule concatenates every <p> when there are enough of them
func paragraphsRule(minParagraphs, minText int) Rule {
	return Rule{
		Name: "paragraphs",
		Find: func(page *Page) (string, bool) {
			paragraphs := page.Doc.Find("p")
			if paragraphs.Length() <= minParagraphs {
				return "", false
			}
			if htmlutil.VisibleLength(paragraphs.Text()) <= minText {
				return "", false
			}

			var b strings.Builder
			paragraphs.Each(func(_ int, s *goquery.Selection) {
				if outer, err := goquery.OuterHtml(s); err == nil {
					b.WriteString(outer)
				}
			})
			return b.String(), b.Len() > 0
		},
	}
}
