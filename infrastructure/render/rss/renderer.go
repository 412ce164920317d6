// ABOUTME: RSS 2.0 renderer for assembled feed documents
// ABOUTME: Adapts domain documents to gorilla/feeds and sets channel language and ttl

package rss

import (
	"github.com/gorilla/feeds"

	"pirss-api/core/domain"
)

// Renderer implements interfaces.FeedRenderer
type Renderer struct{}

// NewRenderer creates an RSS renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render serializes doc as an RSS 2.0 document
func (r *Renderer) Render(doc domain.FeedDocument) ([]byte, error) {
	feed := &feeds.Feed{
		Title:       doc.Meta.Title,
		Link:        &feeds.Link{Href: doc.Meta.SiteURL},
		Description: doc.Meta.Description,
		Created:     doc.Meta.Generated,
		Updated:     doc.Meta.Generated,
		Items:       make([]*feeds.Item, 0, len(doc.Entries)),
	}

	for _, entry := range doc.Entries {
		item := &feeds.Item{
			Title:       entry.Title,
			Link:        &feeds.Link{Href: entry.URL},
			Description: entry.Body,
			Id:          entry.ID,
			Created:     entry.Published,
		}
		if entry.Author != "" {
			item.Author = &feeds.Author{Name: entry.Author}
		}
		feed.Items = append(feed.Items, item)
	}

	channel := (&feeds.Rss{Feed: feed}).RssFeed()
	channel.Language = doc.Meta.Language
	channel.Ttl = doc.Meta.TTLMinutes

	out, err := feeds.ToXML(channel)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
