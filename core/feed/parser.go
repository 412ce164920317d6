// ABOUTME: Feed parser turning upstream RSS/Atom documents into article records
// ABOUTME: Uses gofeed with an RSS translator that keeps per-item discussion links

package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"

	"pirss-api/core/domain"
)

const commentsKey = "comments"

// commentsTranslator extends the default RSS translation with <comments>
type commentsTranslator struct {
	defaultTranslator *gofeed.DefaultRSSTranslator
}

// Translate converts an RSS feed and copies item comments into Custom
func (t *commentsTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	rssFeed, ok := feed.(*rss.Feed)
	if !ok {
		return nil, fmt.Errorf("feed did not match expected type of *rss.Feed")
	}

	result, err := t.defaultTranslator.Translate(rssFeed)
	if err != nil {
		return nil, err
	}

	for i, item := range rssFeed.Items {
		if i >= len(result.Items) || strings.TrimSpace(item.Comments) == "" {
			continue
		}
		if result.Items[i].Custom == nil {
			result.Items[i].Custom = make(map[string]string)
		}
		result.Items[i].Custom[commentsKey] = strings.TrimSpace(item.Comments)
	}

	return result, nil
}

func newParser() *gofeed.Parser {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &commentsTranslator{defaultTranslator: &gofeed.DefaultRSSTranslator{}}
	return parser
}

// Parse returns the records of feedXML in document order. Malformed input
// yields an empty slice.
func Parse(feedXML []byte) []domain.ArticleRecord {
	records, _ := parse(feedXML)
	return records
}

func parse(feedXML []byte) ([]domain.ArticleRecord, error) {
	if len(bytes.TrimSpace(feedXML)) == 0 {
		return []domain.ArticleRecord{}, fmt.Errorf("empty feed document")
	}

	parsed, err := newParser().Parse(bytes.NewReader(feedXML))
	if err != nil {
		return []domain.ArticleRecord{}, err
	}

	records := make([]domain.ArticleRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		records = append(records, toRecord(item))
	}
	return records, nil
}

func toRecord(item *gofeed.Item) domain.ArticleRecord {
	record := domain.ArticleRecord{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		PubDate:     strings.TrimSpace(item.Published),
		Author:      itemAuthor(item),
		GUID:        strings.TrimSpace(item.GUID),
		Description: item.Description,
		CommentsURL: item.Custom[commentsKey],
	}
	if record.PubDate == "" {
		record.PubDate = strings.TrimSpace(item.Updated)
	}
	return record
}

// itemAuthor prefers the person name, then email, then Dublin Core creator
func itemAuthor(item *gofeed.Item) string {
	authors := item.Authors
	if item.Author != nil {
		authors = append([]*gofeed.Person{item.Author}, authors...)
	}
	for _, person := range authors {
		if person == nil {
			continue
		}
		if name := strings.TrimSpace(person.Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(person.Email); email != "" {
			return email
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if creator = strings.TrimSpace(creator); creator != "" {
				return creator
			}
		}
	}
	return ""
}
