// ABOUTME: Cache administration and service index handlers
// ABOUTME: Clears every cache namespace and reports per-namespace statistics

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"pirss-api/core/interfaces"
)

// CacheHandler exposes cache maintenance endpoints
type CacheHandler struct {
	cache   interfaces.Cache
	logger  interfaces.Logger
	started time.Time
}

// NewCacheHandler creates a handler reporting uptime since started
func NewCacheHandler(cache interfaces.Cache, logger interfaces.Logger, started time.Time) *CacheHandler {
	return &CacheHandler{cache: cache, logger: logger, started: started}
}

// ClearCacheOutput confirms a cache clear
type ClearCacheOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

// MemoryStats is a snapshot of the Go runtime heap
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	HeapInuse  uint64 `json:"heapInuse"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

// StatsOutput reports cache counters, uptime in seconds and memory
type StatsOutput struct {
	Body struct {
		Cache  map[interfaces.Namespace]interfaces.CacheStats `json:"cache"`
		Uptime float64                                        `json:"uptime"`
		Memory MemoryStats                                    `json:"memory"`
	}
}

// RegisterRoutes registers /cache/clear and /cache/stats plus their legacy aliases
func (h *CacheHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "clear-cache",
		Method:      http.MethodGet,
		Path:        "/cache/clear",
		Summary:     "Clear all caches",
		Tags:        []string{"Cache"},
	}, h.ClearCache)

	huma.Register(api, huma.Operation{
		OperationID: "cache-stats",
		Method:      http.MethodGet,
		Path:        "/cache/stats",
		Summary:     "Cache statistics",
		Tags:        []string{"Cache"},
	}, h.Stats)

	huma.Register(api, huma.Operation{
		OperationID: "clear-cache-legacy",
		Method:      http.MethodGet,
		Path:        "/clear-cache",
		Hidden:      true,
	}, h.ClearCache)

	huma.Register(api, huma.Operation{
		OperationID: "cache-stats-legacy",
		Method:      http.MethodGet,
		Path:        "/stats",
		Hidden:      true,
	}, h.Stats)
}

// ClearCache empties every namespace
func (h *CacheHandler) ClearCache(ctx context.Context, input *struct{}) (*ClearCacheOutput, error) {
	if err := h.cache.Clear(ctx); err != nil {
		return nil, toHumaError(err, "Failed to clear caches")
	}

	h.logger.Info("All caches cleared", nil)

	out := &ClearCacheOutput{}
	out.Body.Success = true
	out.Body.Message = "All caches cleared"
	return out, nil
}

// Stats reports cache counters, uptime and memory usage
func (h *CacheHandler) Stats(ctx context.Context, input *struct{}) (*StatsOutput, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := &StatsOutput{}
	out.Body.Cache = h.cache.Stats(ctx)
	out.Body.Uptime = time.Since(h.started).Seconds()
	out.Body.Memory = MemoryStats{
		Alloc:      mem.Alloc,
		TotalAlloc: mem.TotalAlloc,
		HeapInuse:  mem.HeapInuse,
		Sys:        mem.Sys,
		NumGC:      mem.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	return out, nil
}
