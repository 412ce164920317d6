// ABOUTME: Readability-based extraction rule for pages the structural rules miss
// ABOUTME: Runs go-readability over a re-rendered copy so the parsed page stays untouched

package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// readabilityRule scores the page with go-readability and accepts a sufficient result
func readabilityRule(minText int) Rule {
	return Rule{
		Name: "readability",
		Find: func(page *Page) (string, bool) {
			pageHTML, err := page.Doc.Html()
			if err != nil {
				return "", false
			}

			article, err := readability.FromReader(strings.NewReader(pageHTML), page.URL)
			if err != nil || strings.TrimSpace(article.Content) == "" {
				return "", false
			}

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
			if err != nil {
				return "", false
			}
			return sufficient(doc.Find("body"), minText)
		},
	}
}
