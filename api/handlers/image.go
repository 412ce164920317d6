// ABOUTME: Image proxy handler for the Huma API
// ABOUTME: Serves CDN images through the image cache namespace behind a host allow-list

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"pirss-api/core/domain"
	"pirss-api/core/extract"
	"pirss-api/core/interfaces"
)

// ImageCacheControl lets clients and intermediaries keep proxied images for a day
const ImageCacheControl = "public, max-age=86400"

// ImageHandler proxies images hosted on the configured CDN domain
type ImageHandler struct {
	cache     interfaces.Cache
	fetcher   interfaces.Fetcher
	cdnDomain string
	logger    interfaces.Logger
}

// NewImageHandler creates a new image proxy handler
func NewImageHandler(deps interfaces.Dependencies, cdnDomain string) *ImageHandler {
	return &ImageHandler{
		cache:     deps.Cache,
		fetcher:   deps.Fetcher,
		cdnDomain: strings.ToLower(cdnDomain),
		logger:    deps.Logger,
	}
}

// ImageInput defines the input for the image proxy operation
type ImageInput struct {
	URL string `query:"url" doc:"Absolute URL of an image on the CDN domain"`
}

// ImageOutput is the raw image
type ImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// RegisterRoutes registers the image proxy route
func (h *ImageHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "proxy-image",
		Method:      http.MethodGet,
		Path:        extract.ProxyPath,
		Summary:     "Proxy a CDN image",
		Description: "Fetches an image from the allow-listed CDN domain and serves it from cache",
		Tags:        []string{"Images"},
	}, h.ProxyImage)
}

// ProxyImage handles GET /image-proxy
func (h *ImageHandler) ProxyImage(ctx context.Context, input *ImageInput) (*ImageOutput, error) {
	if input.URL == "" {
		return nil, huma.Error400BadRequest("Missing url parameter")
	}
	if !h.allowed(input.URL) {
		return nil, huma.Error403Forbidden("Invalid image domain")
	}

	cached, err := h.cache.GetOrGenerate(ctx, interfaces.NamespaceImage, input.URL, func(ctx context.Context) ([]byte, error) {
		img, err := h.fetcher.FetchImage(ctx, input.URL)
		if err != nil {
			return nil, err
		}
		return json.Marshal(img)
	})
	if err != nil {
		h.logger.Warn("Image proxy fetch failed", map[string]interface{}{
			"url":   input.URL,
			"error": err.Error(),
		})
		return nil, toHumaError(err, "Failed to fetch image")
	}

	var img domain.ImageData
	if err := json.Unmarshal(cached, &img); err != nil {
		return nil, toHumaError(err, "Failed to fetch image")
	}

	return &ImageOutput{
		ContentType:  img.ContentType,
		CacheControl: ImageCacheControl,
		Body:         img.Data,
	}, nil
}

// allowed reports whether raw is an http(s) URL whose host is the CDN domain
func (h *ImageHandler) allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return h.cdnDomain != "" && strings.ToLower(u.Hostname()) == h.cdnDomain
}
