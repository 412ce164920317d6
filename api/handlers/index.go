// ABOUTME: Service index handler listing the available endpoints
// ABOUTME: Lets operators discover feed paths without reading configuration

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"pirss-api/api/middleware"
	"pirss-api/core/extract"
	"pirss-api/core/feed"
)

// IndexHandler serves the service index
type IndexHandler struct {
	name        string
	version     string
	definitions []feed.Definition
}

// NewIndexHandler creates the index handler
func NewIndexHandler(name, version string, definitions ...feed.Definition) *IndexHandler {
	return &IndexHandler{name: name, version: version, definitions: definitions}
}

// IndexOutput lists endpoints by path
type IndexOutput struct {
	Body struct {
		Name      string            `json:"name"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
}

// RegisterRoutes registers GET /
func (h *IndexHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "index",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service index",
		Tags:        []string{"Service"},
	}, h.Index)
}

// Index lists every endpoint with absolute feed URLs
func (h *IndexHandler) Index(ctx context.Context, input *struct{}) (*IndexOutput, error) {
	base := middleware.BaseURLFromContext(ctx)

	out := &IndexOutput{}
	out.Body.Name = h.name
	out.Body.Version = h.version
	out.Body.Endpoints = map[string]string{
		extract.ProxyPath: "Image proxy for CDN images (?url=)",
		"/cache/clear":    "Clear all caches",
		"/cache/stats":    "Cache statistics",
	}
	for _, def := range h.definitions {
		out.Body.Endpoints[def.Path] = def.Title + " (" + base + def.Path + ")"
	}
	return out, nil
}
