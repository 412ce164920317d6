package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

const cdnImage = "https://cdnfile.sspai.com/2024/cover.png"

func imageAPI(t *testing.T, fetcher *mockFetcher, cache *mockCache) *ImageHandler {
	t.Helper()
	return NewImageHandler(interfaces.Dependencies{
		Cache:   cache,
		Fetcher: fetcher,
		Logger:  nopLogger{},
	}, "cdnfile.sspai.com")
}

func TestImageHandler_ServesAndCaches(t *testing.T) {
	var calls atomic.Int32
	fetcher := &mockFetcher{
		fetchImageFunc: func(ctx context.Context, u string) (*domain.ImageData, error) {
			calls.Add(1)
			assert.Equal(t, cdnImage, u)
			return &domain.ImageData{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
		},
	}
	cache := newMockCache()

	api := newTestAPI(t)
	imageAPI(t, fetcher, cache).RegisterRoutes(api)

	for i := 0; i < 2; i++ {
		resp := api.Get("/image-proxy?url=" + url.QueryEscape(cdnImage))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", resp.Header().Get("Cache-Control"))
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.Body.Bytes())
	}

	assert.Equal(t, int32(1), calls.Load(), "second request is served from cache")

	stored, err := cache.Get(context.Background(), interfaces.NamespaceImage, cdnImage)
	require.NoError(t, err)
	var img domain.ImageData
	require.NoError(t, json.Unmarshal(stored, &img))
	assert.Equal(t, "image/png", img.ContentType)
}

func TestImageHandler_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expectedCode  int
		expectedError string
	}{
		{"missing url", "/image-proxy", http.StatusBadRequest, "Missing url parameter"},
		{"other host", "/image-proxy?url=" + url.QueryEscape("https://evil.example.com/a.png"), http.StatusForbidden, "Invalid image domain"},
		{"cdn domain as subdomain suffix", "/image-proxy?url=" + url.QueryEscape("https://cdnfile.sspai.com.evil.io/a.png"), http.StatusForbidden, "Invalid image domain"},
		{"cdn domain only in path", "/image-proxy?url=" + url.QueryEscape("https://evil.io/cdnfile.sspai.com/a.png"), http.StatusForbidden, "Invalid image domain"},
		{"non http scheme", "/image-proxy?url=" + url.QueryEscape("file://cdnfile.sspai.com/etc/passwd"), http.StatusForbidden, "Invalid image domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockFetcher{
				fetchImageFunc: func(ctx context.Context, u string) (*domain.ImageData, error) {
					t.Errorf("unexpected fetch of %s", u)
					return nil, nil
				},
			}

			api := newTestAPI(t)
			imageAPI(t, fetcher, newMockCache()).RegisterRoutes(api)

			resp := api.Get(tt.path)
			require.Equal(t, tt.expectedCode, resp.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body["error"])
		})
	}
}

func TestImageHandler_HostMatchIsCaseInsensitive(t *testing.T) {
	fetcher := &mockFetcher{
		fetchImageFunc: func(ctx context.Context, u string) (*domain.ImageData, error) {
			return &domain.ImageData{ContentType: "image/jpeg", Data: []byte{0xff}}, nil
		},
	}

	api := newTestAPI(t)
	imageAPI(t, fetcher, newMockCache()).RegisterRoutes(api)

	resp := api.Get("/image-proxy?url=" + url.QueryEscape("https://CDNFile.SSPAI.com/x.jpg"))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestImageHandler_FetchFailure(t *testing.T) {
	var calls atomic.Int32
	fetcher := &mockFetcher{
		fetchImageFunc: func(ctx context.Context, u string) (*domain.ImageData, error) {
			calls.Add(1)
			return nil, &coreerrors.NetworkError{URL: u, StatusCode: 502, Attempts: 1, Err: errors.New("bad gateway")}
		},
	}

	api := newTestAPI(t)
	imageAPI(t, fetcher, newMockCache()).RegisterRoutes(api)

	for i := 0; i < 2; i++ {
		resp := api.Get("/image-proxy?url=" + url.QueryEscape(cdnImage))
		require.Equal(t, http.StatusInternalServerError, resp.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "Failed to fetch image", body["error"])
		assert.Contains(t, body["message"], "status 502")
	}

	assert.Equal(t, int32(2), calls.Load(), "failures are not cached")
}
