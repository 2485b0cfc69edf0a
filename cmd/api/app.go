package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"forsinka.transitdata.no/internal/app"
	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/clock"
	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/logging"
	"forsinka.transitdata.no/internal/metrics"
	"forsinka.transitdata.no/internal/restapi"
	"forsinka.transitdata.no/internal/siri"
	"forsinka.transitdata.no/internal/stops"
	"forsinka.transitdata.no/internal/webui"
)

// ParseAPIKeys splits a comma-separated list of API keys, trimming
// whitespace around each key.
func ParseAPIKeys(raw string) []string {
	if raw == "" {
		return []string{}
	}
	keys := strings.Split(raw, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// BuildApplication loads the stop catalog and wires the feed client, journey
// manager, and metrics into an Application.
func BuildApplication(cfg appconf.Config, feedCfg siri.Config, stopsPath string, refresh journey.Options) (*app.Application, error) {
	logger := logging.NewLogger(cfg.Verbose)
	slog.SetDefault(logger)

	catalog, err := stops.LoadCSV(stopsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stop catalog: %w", err)
	}
	logger.Info("loaded stop catalog",
		slog.String("path", stopsPath),
		slog.Int("stops", catalog.Len()))

	clk := clock.RealClock{}
	m := metrics.New()
	fetcher := siri.NewClient(feedCfg)
	manager := journey.NewManager(catalog, fetcher, clk, m, refresh)

	return &app.Application{
		Config:     cfg,
		FeedConfig: feedCfg,
		Logger:     logger,
		Journeys:   manager,
		Clock:      clk,
		Metrics:    m,
	}, nil
}

// CreateServer builds the HTTP server around the middleware chain:
// request id, then request logging, then metrics, then the routed handlers.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	ui := webui.NewWebUI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	ui.SetRoutes(mux)

	var handler http.Handler = mux
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv, api
}
