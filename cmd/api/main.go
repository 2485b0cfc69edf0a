package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forsinka.transitdata.no/internal/app"
	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/logging"
	"forsinka.transitdata.no/internal/siri"
)

func main() {
	var (
		port          = flag.Int("port", 4000, "API server port")
		envFlag       = flag.String("env", "development", "Environment (development|test|production)")
		apiKeys       = flag.String("api-keys", "", "Comma-separated API keys exempt from rate limiting")
		rateLimit     = flag.Int("rate-limit", 60, "Requests per second allowed per client (0 or negative disables rate limiting)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		stopsPath     = flag.String("stops-path", "stops.csv", "Path to the stop catalog CSV (optionally gzipped)")
		apiURL        = flag.String("api-url", siri.DefaultAPIURL, "SIRI-ET endpoint to poll")
		staticData    = flag.String("static-data", "", "Read the feed from a local dump instead of polling the API")
		requestorID   = flag.String("requestor-id", "", "requestorId used for diff polling (random when empty)")
		fetchInterval = flag.Int("fetch-interval-seconds", 60, "Seconds between feed polls (0 fetches once at startup)")
		retention     = flag.Int("retention-hours", 8, "Hours a journey stays tracked after its last feed update")
	)
	flag.Parse()

	cfg := appconf.Config{
		Port:      *port,
		Env:       appconf.EnvFlagToEnvironment(*envFlag),
		ApiKeys:   ParseAPIKeys(*apiKeys),
		RateLimit: *rateLimit,
		Verbose:   *verbose,
	}
	feedCfg := siri.Config{
		APIURL:         *apiURL,
		RequestorID:    *requestorID,
		StaticDataPath: *staticData,
	}
	refresh := journey.Options{
		Interval:  time.Duration(*fetchInterval) * time.Second,
		Retention: time.Duration(*retention) * time.Hour,
	}

	coreApp, err := BuildApplication(cfg, feedCfg, *stopsPath, refresh)
	if err != nil {
		slog.Error("unable to build application", slog.Any("error", err))
		os.Exit(1)
	}

	if err := Run(coreApp, cfg); err != nil {
		logging.LogError(coreApp.Logger, "server error", err)
		os.Exit(1)
	}
}

// Run fetches the feed once so the server starts warm, launches the refresh
// loop, and serves HTTP until SIGINT or SIGTERM.
func Run(coreApp *app.Application, cfg appconf.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), journey.DefaultFetchTimeout)
	ctx = logging.WithLogger(ctx, coreApp.Logger)
	if err := coreApp.Journeys.Refresh(ctx); err != nil {
		// Not fatal: the index starts empty and the next poll retries.
		logging.LogError(coreApp.Logger, "initial feed fetch failed", err)
	}
	cancel()

	coreApp.Journeys.Start()
	defer coreApp.Journeys.Shutdown()

	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	shutdownError := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		logging.LogOperation(coreApp.Logger, "shutting_down_server",
			slog.String("signal", s.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		shutdownError <- srv.Shutdown(shutdownCtx)
	}()

	coreApp.Logger.Info("starting server",
		slog.Int("port", cfg.Port),
		slog.String("env", cfg.Env.String()))

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownError; err != nil {
		return err
	}

	coreApp.Logger.Info("stopped server")
	return nil
}
