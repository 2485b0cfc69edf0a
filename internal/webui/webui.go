// Package webui serves the human-facing pages: the train overview and a
// development-only index dump.
package webui

import (
	"net/http"

	"forsinka.transitdata.no/internal/app"
)

// WebUI holds the dependencies for the HTML handlers.
type WebUI struct {
	*app.Application
}

// NewWebUI creates the web UI over the shared application.
func NewWebUI(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

// SetRoutes registers the HTML pages on mux.
func (webUI *WebUI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /trains.html", webUI.trainsPageHandler)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
