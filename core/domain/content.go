// ABOUTME: Domain models for derived article content
// ABOUTME: Defines extraction results, synthesized summaries and proxied images

package domain

// RulePlaceholder names the terminal cascade rule that links back to the source
const RulePlaceholder = "placeholder"

// ExtractionResult is the sanitized article body chosen by the content extractor.
type ExtractionResult struct {
	// HTML is the sanitized fragment, never empty
	HTML string

	// Rule names the cascade rule that produced the fragment
	Rule string
}

// Placeholder reports whether the result is the "visit the original" fallback
// rather than real article content.
func (r ExtractionResult) Placeholder() bool {
	return r.Rule == RulePlaceholder
}

// SummaryData holds the pieces of a synthesized article summary.
type SummaryData struct {
	// Paragraphs are unique, non-empty and already truncated
	Paragraphs []string

	// LeadImageURL is an absolute image URL, empty when none was found
	LeadImageURL string
}

// HasImage reports whether a lead image was found
func (s SummaryData) HasImage() bool {
	return s.LeadImageURL != ""
}

// ImageData is a proxied image as fetched from the CDN
type ImageData struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}
