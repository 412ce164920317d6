// Package api provides the HTTP surface of PiRSS.
// It uses the Huma framework on a chi router for OpenAPI documentation,
// parameter binding and a uniform handler signature.
//
// # Architecture
//
//   - server.go: router, middleware and Huma configuration
//   - handlers/: feed, image proxy, cache and index handlers
//   - middleware/: request logging, per-IP rate limiting, base URL resolution
//
// # Usage Example
//
//	humaAPI, router := api.NewAPIWithMiddleware(api.APIConfig{
//	    Logger:     logger,
//	    RateLimit:  100,
//	    RateWindow: time.Minute,
//	})
//
//	handlers.NewFeedHandler(feedService, primary, secondary).RegisterRoutes(humaAPI)
//	handlers.NewImageHandler(deps, cfg.Feeds.CDNDomain).RegisterRoutes(humaAPI)
//
//	http.ListenAndServe(":3000", router)
//
// # Error Handling
//
// Every failure is rendered as a small JSON object:
//
//	{
//	    "error": "Failed to generate RSS feed",
//	    "message": "fetch https://sspai.com/feed failed after 3 attempt(s): status 503"
//	}
//
// message is omitted for client errors such as a missing url parameter.
package api
