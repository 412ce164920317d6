// ABOUTME: Feed handlers for the Huma API
// ABOUTME: Serves each configured feed definition as a cached RSS document

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"pirss-api/api/middleware"
	"pirss-api/core/feed"
)

// RSSContentType is sent with every feed document
const RSSContentType = "application/rss+xml; charset=utf-8"

// FeedService interface defines the methods needed from the feed service
type FeedService interface {
	Serve(ctx context.Context, def feed.Definition, baseURL string) ([]byte, error)
}

// FeedHandler handles feed requests
type FeedHandler struct {
	feedService FeedService
	definitions []feed.Definition
}

// NewFeedHandler creates a new feed handler serving the given definitions
func NewFeedHandler(feedService FeedService, definitions ...feed.Definition) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		definitions: definitions,
	}
}

// FeedInput has no parameters; the base URL comes from the request
type FeedInput struct{}

// FeedOutput is a raw RSS document
type FeedOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterRoutes registers one GET route per feed definition
func (h *FeedHandler) RegisterRoutes(api huma.API) {
	for _, def := range h.definitions {
		huma.Register(api, huma.Operation{
			OperationID: "get-" + def.ID,
			Method:      http.MethodGet,
			Path:        def.Path,
			Summary:     def.Title,
			Description: def.Description,
			Tags:        []string{"Feeds"},
			Responses: map[string]*huma.Response{
				"200": {
					Description: "RSS 2.0 document",
					Content: map[string]*huma.MediaType{
						"application/rss+xml": {},
					},
				},
			},
		}, h.serve(def))
	}
}

func (h *FeedHandler) serve(def feed.Definition) func(context.Context, *FeedInput) (*FeedOutput, error) {
	return func(ctx context.Context, input *FeedInput) (*FeedOutput, error) {
		doc, err := h.feedService.Serve(ctx, def, middleware.BaseURLFromContext(ctx))
		if err != nil {
			return nil, toHumaError(err, "Failed to generate RSS feed")
		}

		return &FeedOutput{
			ContentType: RSSContentType,
			Body:        doc,
		}, nil
	}
}
