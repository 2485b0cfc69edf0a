package journey

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"forsinka.transitdata.no/internal/clock"
	"forsinka.transitdata.no/internal/logging"
	"forsinka.transitdata.no/internal/metrics"
	"forsinka.transitdata.no/internal/siri"
	"forsinka.transitdata.no/internal/stops"
)

// TrainDataSources are the operator codes serving train journeys.
var TrainDataSources = []string{"VYG", "BNR", "SJN", "GOA", "FLY", "FLT"}

// DefaultRetention is how long a journey stays in the index after its last
// feed update.
const DefaultRetention = 8 * time.Hour

// DefaultFetchTimeout bounds one feed poll.
const DefaultFetchTimeout = 90 * time.Second

// maxSyncGap is the number of refresh attempts allowed to pass without a
// success before the health check reports unhealthy.
const maxSyncGap = 10

// Fetcher supplies raw feed snapshots. *siri.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]siri.EstimatedVehicleJourney, error)
}

// Options configures the refresh behavior of a Manager.
type Options struct {
	// Interval between refresh attempts. Zero or negative means the feed is
	// fetched once at startup and never refreshed.
	Interval time.Duration
	// Retention is the expiry window for stale journeys. Defaults to
	// DefaultRetention.
	Retention time.Duration
	// FetchTimeout bounds one fetch. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration
}

// Health reports the sync counters for the health endpoint.
type Health struct {
	LastSuccessfulSync *uint32 `json:"last_successful_sync"`
	NextSyncAttempt    *uint32 `json:"next_sync_attempt"`
	Healthy            bool    `json:"healthy"`
}

// Manager owns the shared journey index. A single background goroutine
// refreshes it; any number of request handlers query it concurrently. The
// single-writer assumption is documented, not enforced.
type Manager struct {
	catalog *stops.Catalog
	fetcher Fetcher
	clock   clock.Clock
	metrics *metrics.Metrics
	options Options

	// indexMutex guards the shared index. The writer holds the write lock
	// only to swap the index pointer, never across fetch or merge work.
	indexMutex sync.RWMutex
	index      *Index

	// syncMutex guards the two health counters.
	syncMutex          sync.RWMutex
	lastSuccessfulSync uint32
	nextSync           uint32

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewManager creates a Manager with an empty index. Metrics may be nil.
func NewManager(catalog *stops.Catalog, fetcher Fetcher, clk clock.Clock, m *metrics.Metrics, options Options) *Manager {
	if options.Retention <= 0 {
		options.Retention = DefaultRetention
	}
	if options.FetchTimeout <= 0 {
		options.FetchTimeout = DefaultFetchTimeout
	}
	return &Manager{
		catalog:      catalog,
		fetcher:      fetcher,
		clock:        clk,
		metrics:      m,
		options:      options,
		index:        NewEmptyIndex(),
		shutdownChan: make(chan struct{}),
	}
}

// Catalog returns the stop catalog the manager builds journeys against.
func (m *Manager) Catalog() *stops.Catalog {
	return m.catalog
}

// Refresh runs one fetch+build+swap cycle. The attempt counter advances
// whether or not the cycle succeeds; the success counter only on success.
// On failure the shared index is left untouched and the next tick retries.
func (m *Manager) Refresh(ctx context.Context) error {
	logger := logging.FromContext(ctx).With(slog.String("component", "journey_refresh"))
	start := time.Now()

	m.syncMutex.RLock()
	version := m.nextSync
	m.syncMutex.RUnlock()

	defer func() {
		m.syncMutex.Lock()
		m.nextSync++
		m.syncMutex.Unlock()
	}()

	entries, err := m.fetcher.Fetch(ctx)
	if err != nil {
		m.metrics.ObserveRefresh("failure", time.Since(start).Seconds())
		return err
	}

	fresh := NewIndex(m.catalog, entries)
	updated := fresh.Len()

	// Clone under a short read lock, mutate the clone off-lock, then swap
	// under a write lock. Readers see either the old or the new index, never
	// a partially merged one.
	m.indexMutex.RLock()
	next := m.index.Clone()
	m.indexMutex.RUnlock()

	had := next.Len()
	cutoff := m.clock.Now().Add(-m.options.Retention)
	expired := next.Expire(cutoff)
	next.MergeFrom(fresh)
	resulting := next.Len()

	m.indexMutex.Lock()
	m.index = next
	m.indexMutex.Unlock()

	m.syncMutex.Lock()
	m.lastSuccessfulSync = version
	m.syncMutex.Unlock()

	m.metrics.ObserveRefresh("success", time.Since(start).Seconds())
	if m.metrics != nil {
		m.metrics.JourneysTracked.Set(float64(resulting))
		m.metrics.JourneysExpired.Add(float64(expired))
	}

	logger.Info("replaced journey index",
		slog.Int("had", had),
		slog.Int("updated", updated),
		slog.Int("expired", expired),
		slog.Int("resulting", resulting))
	return nil
}

// Start launches the periodic refresh goroutine. With no interval configured
// the manager serves whatever was loaded before Start.
func (m *Manager) Start() {
	if m.options.Interval <= 0 {
		logging.LogOperation(slog.Default().With(slog.String("component", "journey_refresh")),
			"no_fetch_interval_configured_skipping_periodic_refresh")
		return
	}
	m.wg.Add(1)
	go m.refreshPeriodically()
}

func (m *Manager) refreshPeriodically() {
	defer m.wg.Done()

	logger := slog.Default().With(slog.String("component", "journey_refresh"))

	ticker := time.NewTicker(m.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.options.FetchTimeout)
			ctx = logging.WithLogger(ctx, logger)
			if err := m.Refresh(ctx); err != nil {
				logging.LogError(logger, "unable to refresh journey index", err)
			}
			cancel()
		case <-m.shutdownChan:
			logging.LogOperation(logger, "shutting_down_journey_refresh")
			return
		}
	}
}

// Shutdown stops the refresh goroutine and waits for an in-flight cycle to
// finish. Safe to call multiple times.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.shutdownChan)
	})
	m.wg.Wait()
}

// ByStop returns the journeys that will still visit the named stop. An
// unknown stop and a stop with no current journeys both yield an empty
// result.
func (m *Manager) ByStop(stopName string) []*Journey {
	m.indexMutex.RLock()
	defer m.indexMutex.RUnlock()
	return m.index.ByStop(stopName)
}

// ByMode returns the journeys run by any of the given data sources.
func (m *Manager) ByMode(dataSources ...string) []*Journey {
	m.indexMutex.RLock()
	defer m.indexMutex.RUnlock()
	return m.index.ByMode(dataSources...)
}

// Len returns the number of journeys currently tracked.
func (m *Manager) Len() int {
	m.indexMutex.RLock()
	defer m.indexMutex.RUnlock()
	return m.index.Len()
}

// Health reports the sync counters. The service is healthy while fewer than
// maxSyncGap refresh attempts have passed since the last success.
func (m *Manager) Health() Health {
	m.syncMutex.RLock()
	last := m.lastSuccessfulSync
	next := m.nextSync
	m.syncMutex.RUnlock()

	return Health{
		LastSuccessfulSync: &last,
		NextSyncAttempt:    &next,
		Healthy:            next-last < maxSyncGap,
	}
}
