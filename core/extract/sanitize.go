// ABOUTME: Boilerplate removal and image proxy rewriting for extracted fragments
// ABOUTME: Works on a freshly parsed copy of the fragment and returns its serialized HTML

package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ProxyPath is the image proxy route embedded in rewritten image sources
const ProxyPath = "/image-proxy"

const trackingAttrPrefix = "data-v-"

var removeTags = "nav, script, style, noscript, iframe, header, footer"

var removeClasses = strings.Join([]string{
	".emoji", ".comp__Emoji",
	".comments", ".comment-section",
	".reactions", ".interaction",
	".ad", ".advertisement",
	".sidebar", ".side-bar",
	".share", ".social-share",
	".author-card", ".related-articles",
}, ", ")

// Class substrings are matched case-sensitively
var removeClassSubstrings = []string{"emoji", "Emoji", "comment", "reaction", "promo", "share", "related"}

// Sanitizer cleans extracted fragments
type Sanitizer struct {
	cdnDomain string
}

// NewSanitizer creates a sanitizer rewriting images served from cdnDomain
func NewSanitizer(cdnDomain string) *Sanitizer {
	return &Sanitizer{cdnDomain: strings.ToLower(strings.TrimSpace(cdnDomain))}
}

// Sanitize removes boilerplate from fragment and routes CDN images through the proxy
func (s *Sanitizer) Sanitize(fragment string) (string, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	body := goquery.NewDocumentFromNode(root).Selection

	body.Find(removeTags).Remove()
	body.Find(removeClasses).Remove()
	for _, sub := range removeClassSubstrings {
		body.Find(`[class*="` + sub + `"]`).Remove()
	}

	body.Find(`img[alt*="emoji"]`).Each(func(_ int, img *goquery.Selection) {
		parent := img.Parent()
		if parent.Length() > 0 && parent.Get(0) != root {
			parent.Remove()
		}
	})

	body.Find("*").Each(func(_ int, el *goquery.Selection) {
		stripTrackingAttrs(el.Get(0))
	})

	body.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if proxied, ok := s.ProxyURL(src); ok {
			img.SetAttr("src", proxied)
		}
	})

	return body.Html()
}

// ProxyURL returns the proxy path for src when it is served from the CDN domain
func (s *Sanitizer) ProxyURL(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}

	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return "", false
	}
	if s.cdnDomain == "" || strings.ToLower(u.Hostname()) != s.cdnDomain {
		return "", false
	}

	return ProxyPath + "?url=" + url.QueryEscape(src), true
}

func stripTrackingAttrs(n *html.Node) {
	if n == nil || len(n.Attr) == 0 {
		return
	}
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if !strings.HasPrefix(attr.Key, trackingAttrPrefix) {
			kept = append(kept, attr)
		}
	}
	n.Attr = kept
}
