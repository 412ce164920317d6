// ABOUTME: Feed document domain model produced by the feed assembler
// ABOUTME: Entries keep upstream order and are immutable once assembled

package domain

import "time"

// FeedMeta describes the channel-level fields of an output feed
type FeedMeta struct {
	Title       string
	Description string
	// FeedURL is the public URL of the generated feed
	FeedURL string
	// SiteURL is the upstream site the feed mirrors
	SiteURL  string
	Language string
	// TTLMinutes is advertised to readers as the channel ttl
	TTLMinutes int
	Generated  time.Time
}

// FeedEntry is one output item handed to the serializer
type FeedEntry struct {
	Title     string
	Body      string
	URL       string
	ID        string
	Published time.Time
	Author    string
}

// FeedDocument is an assembled feed ready for serialization
type FeedDocument struct {
	Meta    FeedMeta
	Entries []FeedEntry
}

// Len returns the number of entries in the document
func (d FeedDocument) Len() int {
	return len(d.Entries)
}
