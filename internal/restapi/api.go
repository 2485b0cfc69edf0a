// Package restapi exposes the journey index over HTTP.
package restapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forsinka.transitdata.no/internal/app"
)

// Cache lifetimes per endpoint, in seconds. Realtime answers stay fresh for
// less than one refresh interval; the stop catalog only changes on redeploy.
const (
	realtimeCacheSeconds = 10
	catalogCacheSeconds  = 300
)

// RestAPI holds the HTTP layer: route setup, handlers, and the middleware
// they share.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI wires the shared application into the HTTP layer. With a
// positive rate limit each client gets a token bucket; configured API keys
// are exempt.
func NewRestAPI(application *app.Application) *RestAPI {
	api := &RestAPI{Application: application}
	if application.Config.RateLimit > 0 {
		api.rateLimiter = NewRateLimitMiddleware(
			application.Config.RateLimit,
			time.Second,
			application.Config.ApiKeys,
			application.Clock,
		)
	}
	return api
}

// SetRoutes registers all handlers on mux. Health and metrics bypass the
// rate limiter so probes never get throttled.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	api.addRoute(mux, "GET /stop/{stopName}", realtimeCacheSeconds, api.journeysForStopHandler)
	api.addRoute(mux, "GET /trains", realtimeCacheSeconds, api.trainJourneysHandler)
	api.addRoute(mux, "GET /stops", catalogCacheSeconds, api.stopNamesHandler)
	api.addRoute(mux, "GET /stops/near", catalogCacheSeconds, api.stopsNearHandler)

	mux.Handle("GET /healthy", CacheControlMiddleware(0, http.HandlerFunc(api.healthHandler)))
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	mux.Handle("GET /{$}", http.RedirectHandler("/trains.html", http.StatusTemporaryRedirect))
}

func (api *RestAPI) addRoute(mux *http.ServeMux, pattern string, cacheSeconds int, handler http.HandlerFunc) {
	var h http.Handler = handler
	if api.rateLimiter != nil {
		h = api.rateLimiter.Handler()(h)
	}
	mux.Handle(pattern, CacheControlMiddleware(cacheSeconds, h))
}

// Shutdown stops the background goroutines owned by the HTTP layer. Safe to
// call multiple times.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
