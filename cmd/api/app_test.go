package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forsinka.transitdata.no/internal/appconf"
	"forsinka.transitdata.no/internal/journey"
	"forsinka.transitdata.no/internal/siri"
)

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Single key",
			input:    "test-key",
			expected: []string{"test-key"},
		},
		{
			name:     "Multiple keys",
			input:    "key1,key2,key3",
			expected: []string{"key1", "key2", "key3"},
		},
		{
			name:     "Keys with spaces",
			input:    " key1 , key2 , key3 ",
			expected: []string{"key1", "key2", "key3"},
		},
		{
			name:     "Empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "Keys with mixed whitespace",
			input:    "key1,  key2  ,   key3",
			expected: []string{"key1", "key2", "key3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseAPIKeys(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func testConfigs() (appconf.Config, siri.Config, string, journey.Options) {
	cfg := appconf.Config{
		Port:      4000,
		Env:       appconf.Test,
		ApiKeys:   []string{"test"},
		RateLimit: 100,
	}
	feedCfg := siri.Config{
		StaticDataPath: filepath.Join("..", "..", "internal", "siri", "testdata", "siri_et.json"),
	}
	stopsPath := filepath.Join("..", "..", "testdata", "stops.csv")
	refresh := journey.Options{Retention: 8 * time.Hour}
	return cfg, feedCfg, stopsPath, refresh
}

func TestBuildApplication(t *testing.T) {
	cfg, feedCfg, stopsPath, refresh := testConfigs()

	coreApp, err := BuildApplication(cfg, feedCfg, stopsPath, refresh)

	require.NoError(t, err)
	require.NotNil(t, coreApp)
	assert.NotNil(t, coreApp.Logger)
	assert.NotNil(t, coreApp.Metrics)
	assert.Equal(t, cfg, coreApp.Config)
	assert.Equal(t, feedCfg, coreApp.FeedConfig)
	assert.Positive(t, coreApp.Journeys.Catalog().Len())
}

func TestBuildApplicationFailsOnMissingStops(t *testing.T) {
	cfg, feedCfg, _, refresh := testConfigs()

	_, err := BuildApplication(cfg, feedCfg, "/nonexistent/stops.csv", refresh)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load stop catalog")
}

func TestCreateServer(t *testing.T) {
	cfg, feedCfg, stopsPath, refresh := testConfigs()
	cfg.Port = 8080

	coreApp, err := BuildApplication(cfg, feedCfg, stopsPath, refresh)
	require.NoError(t, err)

	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	assert.Equal(t, ":8080", srv.Addr)
	assert.NotNil(t, srv.Handler)
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
}

func TestServerServesFeedFromStaticDump(t *testing.T) {
	cfg, feedCfg, stopsPath, refresh := testConfigs()

	coreApp, err := BuildApplication(cfg, feedCfg, stopsPath, refresh)
	require.NoError(t, err)

	require.NoError(t, coreApp.Journeys.Refresh(context.Background()))

	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	req := httptest.NewRequest(http.MethodGet, "/trains", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var trains []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trains))
	require.Len(t, trains, 1)
	assert.Equal(t, "VYG:ServiceJourney:J1", trains[0]["vehicle_journey_id"])
}

func TestServerHealthyEndpoint(t *testing.T) {
	cfg, feedCfg, stopsPath, refresh := testConfigs()

	coreApp, err := BuildApplication(cfg, feedCfg, stopsPath, refresh)
	require.NoError(t, err)
	require.NoError(t, coreApp.Journeys.Refresh(context.Background()))

	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	req := httptest.NewRequest(http.MethodGet, "/healthy", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health journey.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.Healthy)
}

func TestServerShutsDownCleanly(t *testing.T) {
	cfg, feedCfg, stopsPath, refresh := testConfigs()
	cfg.Port = 0

	coreApp, err := BuildApplication(cfg, feedCfg, stopsPath, refresh)
	require.NoError(t, err)

	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	assert.NoError(t, srv.Shutdown(shutdownCtx))
}
