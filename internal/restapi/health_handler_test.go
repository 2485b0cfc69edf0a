package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forsinka.transitdata.no/internal/app"
	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/clock"
	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/siri"
)

type errorFetcher struct {
	err error
}

func (f *errorFetcher) Fetch(ctx context.Context) ([]siri.EstimatedVehicleJourney, error) {
	return nil, f.err
}

func TestHealthHandler_Healthy(t *testing.T) {
	api := createTestApi(t, testEntry())

	rec := serveRequest(t, api, "/healthy")

	require.Equal(t, http.StatusOK, rec.Code)

	var health journey.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.Healthy)
	require.NotNil(t, health.LastSuccessfulSync)
	require.NotNil(t, health.NextSyncAttempt)
	assert.Equal(t, uint32(0), *health.LastSuccessfulSync)
	assert.Equal(t, uint32(1), *health.NextSyncAttempt)
}

func TestHealthHandler_UnhealthyAfterRepeatedFailures(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 6, 15, 10, 5, 0, 0, time.UTC))
	fetcher := &errorFetcher{err: errors.New("feed unreachable")}
	manager := journey.NewManager(testCatalog(), fetcher, clk, nil, journey.Options{})

	for i := 0; i < 10; i++ {
		require.Error(t, manager.Refresh(context.Background()))
	}

	api := NewRestAPI(&app.Application{
		Config:   appconf.Config{Env: appconf.Test},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Journeys: manager,
		Clock:    clk,
	})

	rec := serveRequest(t, api, "/healthy")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health journey.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.Healthy)
}
