// Package app wires the shared application dependencies together for the
// HTTP handlers and middleware.
package app

import (
	"log/slog"

	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/clock"
	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/metrics"
	"forsinka.transitdata.no/internal/siri"
)

// Application holds the dependencies for our HTTP handlers, helpers, and
// middleware.
type Application struct {
	Config     appconf.Config
	FeedConfig siri.Config
	Logger     *slog.Logger
	Journeys   *journey.Manager
	Clock      clock.Clock
	Metrics    *metrics.Metrics
}
