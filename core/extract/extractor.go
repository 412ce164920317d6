// ABOUTME: Content extractor locating the article body of a fetched page
// ABOUTME: Drives the rule cascade, sanitizes the winner and degrades to a placeholder

package extract

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

// Config holds extraction thresholds and site settings
type Config struct {
	// CDNDomain is the image host rewritten to the proxy
	CDNDomain string

	// SourceName appears in the placeholder link text
	SourceName string

	// MinTextLength is the visible text length an element must exceed
	// when it has no paragraph or figure
	MinTextLength int

	// MinParagraphs is the page paragraph count the paragraph rule must exceed
	MinParagraphs int

	// Readability enables the go-readability rule
	Readability bool
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		CDNDomain:     "cdnfile.sspai.com",
		SourceName:    "SSPAI",
		MinTextLength: 200,
		MinParagraphs: 3,
		Readability:   true,
	}
}

// Extractor implements interfaces.ContentExtractor
type Extractor struct {
	config    Config
	rules     []Rule
	sanitizer *Sanitizer
	logger    interfaces.Logger
}

// NewExtractor creates an extractor with the default rule cascade
func NewExtractor(config Config, logger interfaces.Logger) *Extractor {
	defaults := DefaultConfig()
	if config.MinTextLength <= 0 {
		config.MinTextLength = defaults.MinTextLength
	}
	if config.MinParagraphs <= 0 {
		config.MinParagraphs = defaults.MinParagraphs
	}
	if config.SourceName == "" {
		config.SourceName = defaults.SourceName
	}

	return &Extractor{
		config:    config,
		rules:     Rules(config),
		sanitizer: NewSanitizer(config.CDNDomain),
		logger:    logger,
	}
}

// Rules builds the cascade in priority order
func Rules(config Config) []Rule {
	rules := make([]Rule, 0, len(Selectors)+5)
	for _, selector := range Selectors {
		rules = append(rules, selectorRule(selector, config.MinTextLength))
	}
	rules = append(rules,
		jsonLDRule(),
		containerRule("article", config.MinTextLength),
		containerRule("main", config.MinTextLength),
		paragraphsRule(config.MinParagraphs, config.MinTextLength),
	)
	if config.Readability {
		rules = append(rules, readabilityRule(config.MinTextLength))
	}
	return rules
}

// Extract returns the sanitized article body of pageHTML. It never fails:
// pages without recognizable content yield the placeholder fragment.
func (e *Extractor) Extract(pageHTML, articleURL string) (result domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logWarn("Extraction panicked", articleURL, fmt.Errorf("%v", r))
			result = e.Placeholder(articleURL)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		e.logWarn("Failed to parse article page", articleURL, err)
		return e.Placeholder(articleURL)
	}

	fragment, rule, err := e.Locate(doc, articleURL)
	if err != nil {
		e.logWarn("No article content found", articleURL, err)
		return e.Placeholder(articleURL)
	}

	cleaned, err := e.sanitizer.Sanitize(fragment)
	if err != nil || strings.TrimSpace(cleaned) == "" {
		if err == nil {
			err = &coreerrors.ContentNotFoundError{URL: articleURL}
		}
		e.logWarn("Sanitized content is empty", articleURL, err)
		return e.Placeholder(articleURL)
	}

	if e.logger != nil {
		e.logger.Debug("Extracted article content", map[string]interface{}{
			"url":  articleURL,
			"rule": rule,
		})
	}

	return domain.ExtractionResult{HTML: cleaned, Rule: rule}
}

// Locate runs the cascade and returns the first accepted fragment and the rule name
func (e *Extractor) Locate(doc *goquery.Document, articleURL string) (string, string, error) {
	pageURL, err := url.Parse(articleURL)
	if err != nil {
		pageURL = &url.URL{}
	}
	page := &Page{Doc: doc, URL: pageURL}

	for _, rule := range e.rules {
		if fragment, ok := rule.Find(page); ok {
			return fragment, rule.Name, nil
		}
	}

	return "", "", &coreerrors.ContentNotFoundError{URL: articleURL}
}

// Placeholder is the terminal fragment linking back to the article
func (e *Extractor) Placeholder(articleURL string) domain.ExtractionResult {
	return domain.ExtractionResult{
		HTML: fmt.Sprintf(`<p>Failed to fetch full article content. <a href="%s">Read on %s</a></p>`,
			html.EscapeString(articleURL), html.EscapeString(e.config.SourceName)),
		Rule: domain.RulePlaceholder,
	}
}

func (e *Extractor) logWarn(msg, articleURL string, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(msg, map[string]interface{}{
		"url":   articleURL,
		"error": err.Error(),
	})
}
